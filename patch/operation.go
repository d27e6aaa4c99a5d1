// Package patch parses, validates and applies JSON-Patch operation lists
// against the writable fields of a user.
package patch

import (
	"encoding/json"
)

// Kind is the op member of a patch entry.
type Kind string

const (
	KindReplace Kind = "replace"
	KindAdd     Kind = "add"
	KindRemove  Kind = "remove"
	KindTest    Kind = "test"
	KindCopy    Kind = "copy"
	KindMove    Kind = "move"
)

// AllKinds lists every op the engine understands.
var AllKinds = []Kind{KindReplace, KindAdd, KindRemove, KindTest, KindCopy, KindMove}

// Operation is one validated patch entry. The concrete types below are the
// only implementations.
type Operation interface {
	Kind() Kind
	Target() string
	encode() rawOperation
}

// Replace sets an existing field to a new value.
type Replace struct {
	Path  string
	Value string
}

// Add sets a field, creating it when absent. On an object member this is
// the same as Replace.
type Add struct {
	Path  string
	Value string
}

// Remove clears a field.
type Remove struct {
	Path string
}

// Test asserts that a field holds Value; a mismatch aborts the whole patch.
type Test struct {
	Path  string
	Value string
}

// Copy sets Path to the value found at From.
type Copy struct {
	From string
	Path string
}

// Move sets Path to the value found at From and removes From.
type Move struct {
	From string
	Path string
}

func (o Replace) Kind() Kind { return KindReplace }
func (o Add) Kind() Kind     { return KindAdd }
func (o Remove) Kind() Kind  { return KindRemove }
func (o Test) Kind() Kind    { return KindTest }
func (o Copy) Kind() Kind    { return KindCopy }
func (o Move) Kind() Kind    { return KindMove }

func (o Replace) Target() string { return o.Path }
func (o Add) Target() string     { return o.Path }
func (o Remove) Target() string  { return o.Path }
func (o Test) Target() string    { return o.Path }
func (o Copy) Target() string    { return o.Path }
func (o Move) Target() string    { return o.Path }

func (o Replace) encode() rawOperation {
	return rawOperation{Op: string(KindReplace), Path: o.Path, Value: encodeString(o.Value)}
}

func (o Add) encode() rawOperation {
	return rawOperation{Op: string(KindAdd), Path: o.Path, Value: encodeString(o.Value)}
}

func (o Remove) encode() rawOperation {
	return rawOperation{Op: string(KindRemove), Path: o.Path}
}

func (o Test) encode() rawOperation {
	return rawOperation{Op: string(KindTest), Path: o.Path, Value: encodeString(o.Value)}
}

func (o Copy) encode() rawOperation {
	return rawOperation{Op: string(KindCopy), From: o.From, Path: o.Path}
}

func (o Move) encode() rawOperation {
	return rawOperation{Op: string(KindMove), From: o.From, Path: o.Path}
}

// rawOperation is the wire form of a patch entry.
type rawOperation struct {
	Op    string          `json:"op"`
	Path  string          `json:"path"`
	From  string          `json:"from,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

func encodeString(s string) json.RawMessage {
	// Marshalling a string cannot fail.
	b, _ := json.Marshal(s)
	return b
}
