package ledgerrpc

import "github.com/ledgergate/ledgergate/internal/ledger"

// Wire types mirror the upstream JSON shapes. They are decoded into the
// ledger domain types exactly once, at this boundary; in particular the
// transaction kind is a tagged object on the wire and becomes a
// discriminated variant here instead of being shape-sniffed downstream.

type wirePage[T any] struct {
	Data        []T     `json:"data"`
	NextCursor  *string `json:"nextCursor"`
	HasNextPage bool    `json:"hasNextPage"`
}

type wireCheckpoint struct {
	Digest                   string   `json:"digest"`
	SequenceNumber           uint64   `json:"sequenceNumber"`
	Epoch                    uint64   `json:"epoch"`
	PreviousDigest           string   `json:"previousDigest,omitempty"`
	NetworkTotalTransactions uint64   `json:"networkTotalTransactions"`
	TimestampMs              uint64   `json:"timestampMs"`
	Transactions             []string `json:"transactions,omitempty"`
}

func (w *wireCheckpoint) domain() *ledger.Checkpoint {
	if w == nil {
		return nil
	}
	return &ledger.Checkpoint{
		Digest:                   w.Digest,
		SequenceNumber:           w.SequenceNumber,
		Epoch:                    w.Epoch,
		PreviousDigest:           w.PreviousDigest,
		NetworkTotalTransactions: w.NetworkTotalTransactions,
		TimestampMs:              w.TimestampMs,
		TransactionDigests:       w.Transactions,
	}
}

type wireKind struct {
	Type      string   `json:"type"`
	Recipient string   `json:"recipient,omitempty"`
	Amount    uint64   `json:"amount,omitempty"`
	Package   string   `json:"package,omitempty"`
	Module    string   `json:"module,omitempty"`
	Function  string   `json:"function,omitempty"`
	Modules   []string `json:"modules,omitempty"`
}

func (w wireKind) domain() ledger.TransactionKind {
	switch w.Type {
	case "transfer":
		return ledger.TransferKind{Recipient: w.Recipient, Amount: w.Amount}
	case "call":
		return ledger.CallKind{Package: w.Package, Module: w.Module, Function: w.Function}
	case "publish":
		return ledger.PublishKind{Modules: w.Modules}
	default:
		return ledger.UnknownKind{Tag: w.Type}
	}
}

type wireTransaction struct {
	Digest      string   `json:"digest"`
	Sender      string   `json:"sender"`
	Kind        wireKind `json:"kind"`
	GasBudget   uint64   `json:"gasBudget"`
	GasPrice    uint64   `json:"gasPrice"`
	Success     bool     `json:"success"`
	TimestampMs uint64   `json:"timestampMs"`
	Checkpoint  *string  `json:"checkpoint,omitempty"`
}

func (w *wireTransaction) domain() *ledger.Transaction {
	if w == nil {
		return nil
	}
	return &ledger.Transaction{
		Digest:           w.Digest,
		Sender:           w.Sender,
		Kind:             w.Kind.domain(),
		GasBudget:        w.GasBudget,
		GasPrice:         w.GasPrice,
		Success:          w.Success,
		TimestampMs:      w.TimestampMs,
		CheckpointDigest: w.Checkpoint,
	}
}

type wireObject struct {
	ID                  string `json:"objectId"`
	Version             uint64 `json:"version"`
	Digest              string `json:"digest"`
	Type                string `json:"type"`
	Owner               string `json:"owner,omitempty"`
	PreviousTransaction string `json:"previousTransaction,omitempty"`
}

func (w *wireObject) domain() *ledger.Object {
	if w == nil {
		return nil
	}
	return &ledger.Object{
		ID:                  w.ID,
		Version:             w.Version,
		Digest:              w.Digest,
		Type:                w.Type,
		Owner:               w.Owner,
		PreviousTransaction: w.PreviousTransaction,
	}
}

type wireEpoch struct {
	Number            uint64  `json:"epoch"`
	FirstCheckpoint   uint64  `json:"firstCheckpoint"`
	StartTimestampMs  uint64  `json:"startTimestampMs"`
	EndTimestampMs    *uint64 `json:"endTimestampMs,omitempty"`
	ReferenceGasPrice uint64  `json:"referenceGasPrice"`
}

func (w *wireEpoch) domain() *ledger.Epoch {
	if w == nil {
		return nil
	}
	return &ledger.Epoch{
		Number:            w.Number,
		FirstCheckpoint:   w.FirstCheckpoint,
		StartTimestampMs:  w.StartTimestampMs,
		EndTimestampMs:    w.EndTimestampMs,
		ReferenceGasPrice: w.ReferenceGasPrice,
	}
}

type wireEvent struct {
	TxDigest    string `json:"txDigest"`
	EventSeq    uint64 `json:"eventSeq"`
	Type        string `json:"type"`
	Sender      string `json:"sender"`
	TimestampMs uint64 `json:"timestampMs"`
	Payload     any    `json:"payload,omitempty"`
}

func (w *wireEvent) domain() *ledger.Event {
	if w == nil {
		return nil
	}
	e := &ledger.Event{
		TxDigest:    w.TxDigest,
		EventSeq:    w.EventSeq,
		Type:        w.Type,
		Sender:      w.Sender,
		TimestampMs: w.TimestampMs,
	}
	e.PayloadJSON = marshalPayload(w.Payload)
	return e
}

type wireFunction struct {
	Package    string   `json:"package"`
	Module     string   `json:"module"`
	Name       string   `json:"name"`
	Visibility string   `json:"visibility"`
	IsEntry    bool     `json:"isEntry"`
	Parameters []string `json:"parameters,omitempty"`
}

func (w *wireFunction) domain() *ledger.Function {
	if w == nil {
		return nil
	}
	return &ledger.Function{
		Package:    w.Package,
		Module:     w.Module,
		Name:       w.Name,
		Visibility: w.Visibility,
		IsEntry:    w.IsEntry,
		Parameters: w.Parameters,
	}
}
