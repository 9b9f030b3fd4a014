package remote

// Wire protocol for the websocket backend. Every frame is one JSON text
// message. Requests carry a correlation id echoed on the matching result;
// change frames are server-pushed and carry the subscription id they belong
// to instead.

type frameType string

const (
	frameGet         frameType = "get"
	frameSetMerge    frameType = "set_merge"
	frameDelete      frameType = "delete"
	frameList        frameType = "list"
	frameSubscribe   frameType = "subscribe"
	frameUnsubscribe frameType = "unsubscribe"
	frameResult      frameType = "result"
	frameChange      frameType = "change"
)

type wireChange struct {
	Kind string   `json:"kind"` // added, modified, removed
	ID   string   `json:"id"`
	Doc  Document `json:"doc,omitempty"`
}

type wireSnapshot struct {
	ID  string   `json:"id"`
	Doc Document `json:"doc"`
}

type frame struct {
	Type frameType `json:"type"`

	// Req correlates a request with its result frame.
	Req string `json:"req,omitempty"`
	// Sub identifies the subscription a change frame belongs to.
	Sub string `json:"sub,omitempty"`

	Path       string `json:"path,omitempty"`
	Collection string `json:"collection,omitempty"`

	// Doc carries the merge payload on set_merge and the read result on
	// get. Unset lists field names the merge removes remotely.
	Doc   Document `json:"doc,omitempty"`
	Unset []string `json:"unset,omitempty"`
	Found bool     `json:"found,omitempty"`

	Docs    []wireSnapshot `json:"docs,omitempty"`
	Changes []wireChange   `json:"changes,omitempty"`

	Error string `json:"error,omitempty"`
}
