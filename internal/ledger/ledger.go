package ledger

import (
	"fmt"
	"strings"
)

// Checkpoint is one finalized batch of transactions in the ledger history.
type Checkpoint struct {
	Digest                   string
	SequenceNumber           uint64
	Epoch                    uint64
	PreviousDigest           string
	NetworkTotalTransactions uint64
	TimestampMs              uint64
	TransactionDigests       []string
}

// Transaction is one executed ledger transaction.
type Transaction struct {
	Digest      string
	Sender      string
	Kind        TransactionKind
	GasBudget   uint64
	GasPrice    uint64
	Success     bool
	TimestampMs uint64

	// CheckpointDigest identifies the containing checkpoint, nil while
	// the transaction is not yet finalized.
	CheckpointDigest *string
}

// TransactionKind is the decoded variant of a transaction payload. The
// upstream wire format carries a differently-shaped object per kind; the
// client decodes it into exactly one of these variants at the boundary so
// downstream code never has to sniff field shapes.
type TransactionKind interface {
	isTransactionKind()
}

// TransferKind moves an amount between two addresses.
type TransferKind struct {
	Recipient string
	Amount    uint64
}

// CallKind invokes a published function.
type CallKind struct {
	Package  string
	Module   string
	Function string
}

// PublishKind publishes a package of modules.
type PublishKind struct {
	Modules []string
}

// UnknownKind preserves kinds this gateway does not model yet.
type UnknownKind struct {
	Tag string
}

func (TransferKind) isTransactionKind() {}
func (CallKind) isTransactionKind()     {}
func (PublishKind) isTransactionKind()  {}
func (UnknownKind) isTransactionKind()  {}

// Object is one addressable object in the ledger's object store.
type Object struct {
	ID                  string
	Version             uint64
	Digest              string
	Type                string
	Owner               string // owning address; empty for shared or immutable objects
	PreviousTransaction string
}

// Epoch is one epoch record. Epochs have no by-ID upstream call; they are
// only reachable by scanning forward from the start of history.
type Epoch struct {
	Number            uint64
	FirstCheckpoint   uint64
	StartTimestampMs  uint64
	EndTimestampMs    *uint64
	ReferenceGasPrice uint64
}

// Event is one event emitted during transaction execution. An event has no
// single unique field; it is identified by (TxDigest, EventSeq).
type Event struct {
	TxDigest    string
	EventSeq    uint64
	Type        string
	Sender      string
	TimestampMs uint64
	PayloadJSON string
}

// Function is one function of a published module, addressed by the
// composite ref "package,module,name".
type Function struct {
	Package    string
	Module     string
	Name       string
	Visibility string
	IsEntry    bool
	Parameters []string
}

// Ref returns the composite key addressing f.
func (f Function) Ref() string {
	return f.Package + "," + f.Module + "," + f.Name
}

// ParseFunctionRef splits a "package,module,name" ref.
func ParseFunctionRef(ref string) (pkg, module, name string, err error) {
	parts := strings.Split(ref, ",")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", fmt.Errorf("malformed function ref %q, want \"package,module,name\"", ref)
	}
	return parts[0], parts[1], parts[2], nil
}

// TransactionFilter narrows paged transaction listings.
type TransactionFilter struct {
	Sender     string
	Checkpoint *uint64
}

// EventFilter narrows paged event listings.
type EventFilter struct {
	TxDigest string
	Sender   string
}
