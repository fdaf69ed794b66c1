// Package protocol defines the request/response envelopes and the correlation
// scheme binding worker proxy calls to authority execution.
//
// Exactly one response is produced per request, or the sender's wait times
// out. All types serialize to JSON so they can cross process boundaries.
package protocol

// Op tags a query variant.
type Op string

const (
	OpGet                 = Op("get")
	OpSet                 = Op("set")
	OpPush                = Op("push")
	OpUnshift             = Op("unshift")
	OpPop                 = Op("pop")
	OpShift               = Op("shift")
	OpSplice              = Op("splice")
	OpRemoveItemFromArray = Op("removeItemFromArray")
	OpUpdateItemInArray   = Op("updateItemInArray")
	OpBatch               = Op("batch")
	OpReplaceAll          = Op("replaceAll")
	OpLock                = Op("lock")
	OpRelease             = Op("release")
)

// Query carries one operation and its operands.
// Only the fields appropriate to the op are set.
type Query struct {
	Op          Op       `json:"op"`
	Selector    []string `json:"selector,omitempty"`
	Key         string   `json:"key,omitempty"`
	Value       any      `json:"value,omitempty"`
	Item        any      `json:"item,omitempty"`
	UpdatedItem any      `json:"updatedItem,omitempty"`
	MatchKey    string   `json:"matchKey,omitempty"`
	Start       int      `json:"start,omitempty"`
	Count       int      `json:"count,omitempty"`
	Queries     []Query  `json:"queries,omitempty"`
	Content     any      `json:"content,omitempty"`
	TTLMs       int64    `json:"ttlMs,omitempty"`
}

// Request addresses one document hosted by the authority.
type Request struct {
	DocumentID    string `json:"documentId"`
	CorrelationID string `json:"correlationId"`
	Query         Query  `json:"query"`
	// LockToken is attached when the sender holds a transaction token.
	LockToken string `json:"lockToken,omitempty"`
}

// Response resolves the pending call with the matching correlation id.
type Response struct {
	CorrelationID string `json:"correlationId"`
	Finished      bool   `json:"finished"`
	// OK is the soft-success flag: false reports a structural mismatch,
	// the operation did not mutate anything and there is no error.
	OK     bool   `json:"ok"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
	// ErrorName restores the error type on the proxy side, see coorderrors.
	ErrorName string `json:"errorName,omitempty"`
}
