// Package ir defines the producer's output contract: the shape of the
// intermediate representation that a compilation unit must expose before
// it can be indexed into a module summary. Real frontends walk typed SIL
// or equivalent; this package models only what the indexer needs from
// that walk.
package ir

// DeclaringContext identifies where a method referenced through a
// key-path component is declared.
type DeclaringContext int

const (
	ContextNone DeclaringContext = iota
	ContextClass
	ContextProtocol
)

// InstructionKind classifies one reference inside a function body that
// the indexer must turn into one or more call edges.
type InstructionKind int

const (
	// FunctionRef is a direct reference to another function's symbol.
	FunctionRef InstructionKind = iota
	// WitnessMethodRef is a dispatch through a protocol requirement.
	WitnessMethodRef
	// ClassMethodRef is a dispatch through a class v-table slot.
	ClassMethodRef
	// KeyPathRef is a reference to a key-path descriptor embedded in data.
	KeyPathRef
)

// Instruction is one classified reference inside a function body.
type Instruction struct {
	Kind InstructionKind

	// CalleeName is the mangled name of the referenced function, set for
	// FunctionRef.
	CalleeName string

	// DeclName is the mangled name of the abstract declaration dispatched
	// through, set for WitnessMethodRef and ClassMethodRef.
	DeclName string

	// KeyPath holds the descriptor referenced, set for KeyPathRef.
	KeyPath *KeyPathDescriptor
}

// Function is one function defined by the compilation unit.
type Function struct {
	Name string

	// ObjCCompatible marks a function using the foreign/Objective-C
	// compatible calling convention.
	ObjCCompatible bool

	// HasCReferences marks a function with direct references from C.
	HasCReferences bool

	Instructions []Instruction
}

// WitnessEntry is one requirement-to-implementation binding inside a
// witness table.
type WitnessEntry struct {
	// RequirementName is the mangled name of the protocol requirement.
	RequirementName string
	// ImplName is the mangled name of the conforming type's
	// implementation. Empty means the entry has no implementation.
	ImplName string
}

// WitnessTable binds one conforming type's implementations to the
// requirements of one protocol.
type WitnessTable struct {
	ProtocolName   string
	ProtocolModule string
	// DeclaringModule is the module that emits this witness table.
	DeclaringModule string
	Entries         []WitnessEntry
}

// MethodKind classifies a v-table entry's runtime role.
type MethodKind int

const (
	MethodNormal MethodKind = iota
	MethodDeallocator
	MethodIVarDestroyer
	MethodOverride
)

// VTableEntry is one method slot inside a class's v-table.
type VTableEntry struct {
	// MethodName is the mangled name of the method declaration the slot
	// dispatches through.
	MethodName string
	// ImplName is the mangled name of the concrete override installed in
	// this slot.
	ImplName string
	Kind      MethodKind
	// DeclaringModule is the module where MethodName is declared, used to
	// decide whether an Override entry is externally reachable.
	DeclaringModule string
}

// VTable is one class's dispatch table.
type VTable struct {
	ClassName string
	Entries   []VTableEntry
}

// KeyPathComponentKind distinguishes a concrete-function component from a
// method component inside a key-path descriptor.
type KeyPathComponentKind int

const (
	KeyPathComponentFunction KeyPathComponentKind = iota
	KeyPathComponentMethod
)

// KeyPathComponent is one accessor referenced by a key-path descriptor.
type KeyPathComponent struct {
	Kind KeyPathComponentKind
	// Name is the mangled name of the function (Function kind) or the
	// method declaration (Method kind).
	Name string
	// Context is the declaring context of Name, meaningful only for the
	// Method kind.
	Context DeclaringContext
}

// KeyPathDescriptor is a data-embedded reference to one or more accessor
// functions. Held by a function body (through a KeyPathRef instruction),
// its components become call edges of that function; listed in
// Module.KeyPaths, its components are preserved outright.
type KeyPathDescriptor struct {
	Name       string
	Components []KeyPathComponent
}

// Module is one compilation unit's complete producer output.
type Module struct {
	Name          string
	Functions     []Function
	WitnessTables []WitnessTable
	VTables       []VTable
	KeyPaths      []KeyPathDescriptor
}
