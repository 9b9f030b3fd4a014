// Package paths defines the remote store collection layout shared by the
// sync coordinators and the repositories.
//
// Layout:
//
//	profiles/{uid}
//	profiles/{uid}/habits/{habitId}
//	profiles/{uid}/emotions/{isoDate}
//	profiles/{uid}/habits/{habitId}/activities/{activityId}
//	profiles/{uid}/metrics/{isoDate}
//	habitTemplates/{templateId}
package paths

import "strings"

// Templates is the global, read-only template catalog. Not namespaced per
// identity.
const Templates = "habitTemplates"

// Profiles is the collection holding one document per identity.
const Profiles = "profiles"

// Profile returns the document path of a user's profile.
func Profile(uid string) string {
	return Profiles + "/" + uid
}

// Habits returns a user's habit collection.
func Habits(uid string) string {
	return Profile(uid) + "/habits"
}

// Habit returns the document path of one habit.
func Habit(uid, habitID string) string {
	return Habits(uid) + "/" + habitID
}

// Emotions returns a user's emotion collection.
func Emotions(uid string) string {
	return Profile(uid) + "/emotions"
}

// Emotion returns the document path of one day's emotion record.
func Emotion(uid, date string) string {
	return Emotions(uid) + "/" + date
}

// Activities returns the activity collection of one habit.
func Activities(uid, habitID string) string {
	return Habit(uid, habitID) + "/activities"
}

// Activity returns the document path of one habit activity.
func Activity(uid, habitID, activityID string) string {
	return Activities(uid, habitID) + "/" + activityID
}

// ActivityGroup is the collection-group pattern matching every activity of
// every habit of one user. The "*" segment matches exactly one path
// segment.
func ActivityGroup(uid string) string {
	return Habits(uid) + "/*/activities"
}

// Metrics returns a user's wearable daily-metrics collection.
func Metrics(uid string) string {
	return Profile(uid) + "/metrics"
}

// Metric returns the document path of one day's wearable metrics.
func Metric(uid, date string) string {
	return Metrics(uid) + "/" + date
}

// Template returns the document path of one catalog template.
func Template(id string) string {
	return Templates + "/" + id
}

// Split separates a document path into its collection and document id.
func Split(path string) (collection, id string) {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

// MatchCollection reports whether a collection path matches a pattern.
// Pattern segments of "*" match any single segment; all other segments
// must match exactly.
func MatchCollection(pattern, collection string) bool {
	if pattern == collection {
		return true
	}
	ps := strings.Split(pattern, "/")
	cs := strings.Split(collection, "/")
	if len(ps) != len(cs) {
		return false
	}
	for i := range ps {
		if ps[i] != "*" && ps[i] != cs[i] {
			return false
		}
	}
	return true
}
