// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package facts defines the fact model: the entity-relationship schema every
// checker rule reads. A Store is produced once by an external loader (out of
// scope here, see spec §1) and consumed read-only by the batch RuleEngine, or
// mutated only through signed deltas by the IncrementalEngine.
//
// Every name comparison in this package and its callers must be
// case-insensitive — this is the single most common source of regressions
// (see spec §9) and is enforced by routing comparisons through strings.EqualFold
// or the Helpers in helpers.go rather than inlining them.
package facts

// File describes one source file contributing facts to the store.
type File struct {
	Path        string `json:"path"`
	Library     string `json:"library"`
	ThirdParty  bool   `json:"third_party"`
}

// Entity is a VHDL entity declaration: an interface with a port list.
type Entity struct {
	Name     string        `json:"name"`
	File     string        `json:"file"`
	Line     int           `json:"line"`
	Ports    []Port        `json:"ports"`
	Generics []GenericDecl `json:"generics"`
}

// Architecture implements an Entity's body. Invariant: an Architecture
// refers to exactly one Entity by name; if the referent is missing that is
// itself a finding (orphan_architecture).
type Architecture struct {
	Name       string `json:"name"`
	EntityName string `json:"entity_name"`
	File       string `json:"file"`
	Line       int    `json:"line"`
}

// Package is a VHDL package declaration.
type Package struct {
	Name string `json:"name"`
	File string `json:"file"`
	Line int    `json:"line"`
}

// Component is either a component declaration (IsInstance=false) or an
// instantiation statement (IsInstance=true) referencing EntityRef.
type Component struct {
	Name       string        `json:"name"`
	EntityRef  string        `json:"entity_ref"`
	File       string        `json:"file"`
	Line       int           `json:"line"`
	IsInstance bool          `json:"is_instance"`
	Ports      []Port        `json:"ports"`
	Generics   []GenericDecl `json:"generics"`
}

// Signal is declared inside an architecture (InEntity names the owning
// architecture scope — a historical naming quirk carried from the original
// loader's schema, not an actual entity reference).
type Signal struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Width    int    `json:"width"`
	InEntity string `json:"in_entity"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

// Port direction values.
const (
	DirIn     = "in"
	DirOut    = "out"
	DirInout  = "inout"
	DirBuffer = "buffer"
)

// Port is a single entity or component port.
type Port struct {
	Name      string `json:"name"`
	Direction string `json:"direction"`
	Type      string `json:"type"`
	Width     int    `json:"width"`
	Default   string `json:"default"`
	InEntity  string `json:"in_entity"`
	Line      int    `json:"line"`
}

// GenericDecl is a generic (compile-time parameter) declaration.
type GenericDecl struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Default string `json:"default"`
}

// UseClause records a VHDL "use" clause.
type UseClause struct {
	File string `json:"file"`
	Item string `json:"item"`
	Line int    `json:"line"`
}

// LibraryClause records a VHDL "library" clause.
type LibraryClause struct {
	File    string `json:"file"`
	Library string `json:"library"`
	Line    int    `json:"line"`
}

// ContextClause records a VHDL-2008 context declaration use.
type ContextClause struct {
	File    string `json:"file"`
	Context string `json:"context"`
	Line    int    `json:"line"`
}

// Dependency kinds.
const (
	DepUse           = "use"
	DepInstantiation = "instantiation"
	DepContext       = "context"
	DepLibrary       = "library"
)

// Dependency is a file-level reference to another design unit.
type Dependency struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Kind     string `json:"kind"`
	Line     int    `json:"line"`
	Resolved bool   `json:"resolved"`
}

// Symbol is a named declaration tracked for scope/use resolution.
type Symbol struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	File string `json:"file"`
	Line int    `json:"line"`
}

// FileInfo carries per-file metadata distinct from File (kept separate to
// mirror the original schema's split between library assignment and
// third-party classification).
type FileInfo struct {
	Path    string `json:"path"`
	Library string `json:"library"`
}

// Scope is a named lexical scope (architecture, process, subprogram body).
type Scope struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Parent string `json:"parent"`
}

// SymbolDef is a declaration site used by name-resolution diagnostics.
type SymbolDef struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Scope string `json:"scope"`
	File  string `json:"file"`
	Line  int    `json:"line"`
}

// NameUse is a use (read or reference) site for a name.
type NameUse struct {
	Name  string `json:"name"`
	Scope string `json:"scope"`
	File  string `json:"file"`
	Line  int    `json:"line"`
}

// VerificationBlock is a user-authored comment block anchoring verification
// tags to a location in the source.
type VerificationBlock struct {
	Label     string `json:"label"`
	InArch    string `json:"in_arch"`
	File      string `json:"file"`
	LineStart int    `json:"line_start"`
	LineEnd   int    `json:"line_end"`
}

// VerificationTag is a user-placed machine-readable annotation asserting a
// verification property holds.
type VerificationTag struct {
	ID       string            `json:"id"`
	Scope    string            `json:"scope"`
	Bindings map[string]string `json:"bindings"`
	Raw      string            `json:"raw"`
	InArch   string            `json:"in_arch"`
	File     string            `json:"file"`
	Line     int               `json:"line"`
}

// VerificationTagError records a tag that failed to parse at all (distinct
// from a tag that parsed but failed registry validation).
type VerificationTagError struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// Association pairing kinds.
const (
	AssocPositional = "positional"
	AssocNamed      = "named"
)

// Association is one formal/actual pairing inside an instance's port or
// generic map.
type Association struct {
	Kind        string `json:"kind"`
	Index       int    `json:"index"`
	Formal      string `json:"formal"`
	Actual      string `json:"actual"`
	ActualBase  string `json:"actual_base"`
	ActualFull  string `json:"actual_full"`
}

// Instance is a component/entity instantiation statement.
type Instance struct {
	Name         string            `json:"name"`
	Target       string            `json:"target"`
	PortMap      map[string]string `json:"port_map"`
	GenericMap   map[string]string `json:"generic_map"`
	Associations []Association     `json:"associations"`
	InArch       string            `json:"in_arch"`
	File         string            `json:"file"`
	Line         int               `json:"line"`
}

// CaseStatement is a "case <expression> is ... end case" statement.
type CaseStatement struct {
	Expression string   `json:"expression"`
	Choices    []string `json:"choices"`
	HasOthers  bool      `json:"has_others"`
	InProcess  string   `json:"in_process"`
	InArch     string   `json:"in_arch"`
	File       string   `json:"file"`
	Line       int      `json:"line"`
}

// Concurrent assignment kinds.
const (
	AssignSimple      = "simple"
	AssignConditional = "conditional"
	AssignSelected    = "selected"
)

// ConcurrentAssignment is a concurrent signal assignment statement.
type ConcurrentAssignment struct {
	Target       string   `json:"target"`
	ReadSignals  []string `json:"read_signals"`
	Kind         string   `json:"kind"`
	InGenerate   bool     `json:"in_generate"`
	GenerateLabel string  `json:"generate_label"`
	InArch       string   `json:"in_arch"`
	File         string   `json:"file"`
	Line         int      `json:"line"`
}

// Comparison is a relational expression tracked for magic-number style rules.
type Comparison struct {
	Operator    string `json:"operator"`
	LeftOperand string `json:"left_operand"`
	RightOperand string `json:"right_operand"`
	IsLiteral   bool   `json:"is_literal"`
	LiteralWidth int   `json:"literal_width"`
	File        string `json:"file"`
	Line        int    `json:"line"`
}

// ArithmeticOp is an arithmetic expression tracked for unguarded-operator and
// power-hotspot rules.
type ArithmeticOp struct {
	Operator    string `json:"operator"`
	ResultDrives string `json:"result_drives"`
	File        string `json:"file"`
	Line        int    `json:"line"`
}

// SignalDep is the elementary edge of the dependency graph: target depends
// on source. IsSequential marks a register (clocked) assignment, which
// breaks combinational loops.
type SignalDep struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	IsSequential bool   `json:"is_sequential"`
	InProcess    string `json:"in_process"`
	InArch       string `json:"in_arch"`
	File         string `json:"file"`
	Line         int    `json:"line"`
}

// CDCCrossing records a signal observed crossing clock domains.
type CDCCrossing struct {
	Signal        string `json:"signal"`
	SourceClock   string `json:"source_clock"`
	DestClock     string `json:"dest_clock"`
	IsSynchronized bool  `json:"is_synchronized"`
	SyncStages    int    `json:"sync_stages"`
	IsMultiBit    bool   `json:"is_multi_bit"`
	File          string `json:"file"`
	Line          int    `json:"line"`
}

// SignalUsage is an explicit read/write observation for a signal. Store
// has no field holding these records, and graphanalysis.BuildSignalUsageIndex
// does not read them: the index is built from process, concurrent-assignment,
// and instance scans only.
type SignalUsage struct {
	Signal string `json:"signal"`
	Kind   string `json:"kind"` // "read" | "assigned" | "used"
	InArch string `json:"in_arch"`
}

// Process is a VHDL process statement.
type Process struct {
	Label            string   `json:"label"`
	SensitivityList  []string `json:"sensitivity_list"`
	IsSequential     bool     `json:"is_sequential"`
	IsCombinational  bool     `json:"is_combinational"`
	ClockSignal      string   `json:"clock_signal"`
	ClockEdge        string   `json:"clock_edge"` // "rising" | "falling" | ""
	HasReset         bool     `json:"has_reset"`
	ResetSignal      string   `json:"reset_signal"`
	ResetAsync       bool     `json:"reset_async"`
	AssignedSignals  []string `json:"assigned_signals"`
	ReadSignals      []string `json:"read_signals"`
	Variables        []string `json:"variables"`
	InArch           string   `json:"in_arch"`
	File             string   `json:"file"`
	Line             int      `json:"line"`
}

// VariableDecl is a process-local variable declaration.
type VariableDecl struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	InProcess string `json:"in_process"`
	File      string `json:"file"`
	Line      int    `json:"line"`
}

// ProcedureCall / FunctionCall are subprogram invocation sites.
type ProcedureCall struct {
	Name   string `json:"name"`
	Scope  string `json:"scope"`
	File   string `json:"file"`
	Line   int    `json:"line"`
}

type FunctionCall struct {
	Name   string `json:"name"`
	Scope  string `json:"scope"`
	File   string `json:"file"`
	Line   int    `json:"line"`
}

// WaitStatement is a "wait" statement inside a process.
type WaitStatement struct {
	InProcess string `json:"in_process"`
	HasTimeout bool  `json:"has_timeout"`
	File      string `json:"file"`
	Line      int    `json:"line"`
}

// GenerateStatement is a for/if-generate block.
type GenerateStatement struct {
	Label   string `json:"label"`
	LoopVar string `json:"loop_var"`
	Kind    string `json:"kind"` // "for" | "if"
	InArch  string `json:"in_arch"`
	File    string `json:"file"`
	Line    int    `json:"line"`
}

// Configuration is a VHDL configuration declaration.
type Configuration struct {
	Name       string `json:"name"`
	EntityName string `json:"entity_name"`
	File       string `json:"file"`
	Line       int    `json:"line"`
}

// Type declaration kinds.
const (
	TypeEnum   = "enum"
	TypeRecord = "record"
	TypeArray  = "array"
)

// TypeDeclaration is a user-defined type.
type TypeDeclaration struct {
	Name        string       `json:"name"`
	Kind        string       `json:"kind"`
	EnumLiterals []string    `json:"enum_literals"`
	Fields      []RecordField `json:"fields"`
	File        string       `json:"file"`
	Line        int          `json:"line"`
}

// RecordField is one field of a record type.
type RecordField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// SubtypeDeclaration is a user-defined subtype with a base type.
type SubtypeDeclaration struct {
	Name     string `json:"name"`
	BaseType string `json:"base_type"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

// FunctionDeclaration / ProcedureDeclaration are subprogram signatures.
type FunctionDeclaration struct {
	Name       string                `json:"name"`
	Parameters []SubprogramParameter `json:"parameters"`
	File       string                `json:"file"`
	Line       int                   `json:"line"`
}

type ProcedureDeclaration struct {
	Name       string                `json:"name"`
	Parameters []SubprogramParameter `json:"parameters"`
	File       string                `json:"file"`
	Line       int                   `json:"line"`
}

// SubprogramParameter is one formal parameter of a function or procedure.
type SubprogramParameter struct {
	Name string `json:"name"`
	Mode string `json:"mode"` // "in" | "out" | "inout"
	Type string `json:"type"`
}

// ConstantDeclaration is a constant declaration.
type ConstantDeclaration struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
	File  string `json:"file"`
	Line  int    `json:"line"`
}

// LintConfig maps rule id to severity string (off|info|warning|error), plus
// the set of optional rules explicitly enabled.
type LintConfig struct {
	Rules            map[string]string `json:"rules"`
	EnabledOptional  map[string]bool   `json:"enabled_optional"`
	ThirdPartyPaths  []string          `json:"third_party_paths"`
}
