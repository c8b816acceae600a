// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package facts

import (
	"regexp"
	"strconv"
	"strings"
)

// Store is the read-only fact model an evaluation runs over. A batch
// RuleEngine receives one fully-populated Store per run; the IncrementalEngine
// mutates an internal equivalent through signed deltas (see
// internal/incremental) and projects a Store-shaped snapshot for rules that
// are not expressed as native relational joins.
type Store struct {
	Files           []File                 `json:"files"`
	Entities        []Entity               `json:"entities"`
	Architectures   []Architecture         `json:"architectures"`
	Packages        []Package              `json:"packages"`
	Components      []Component            `json:"components"`
	Signals         []Signal               `json:"signals"`
	UseClauses      []UseClause            `json:"use_clauses"`
	LibraryClauses  []LibraryClause        `json:"library_clauses"`
	ContextClauses  []ContextClause        `json:"context_clauses"`
	Dependencies    []Dependency           `json:"dependencies"`
	Instances       []Instance             `json:"instances"`
	CaseStatements  []CaseStatement        `json:"case_statements"`
	Assignments     []ConcurrentAssignment `json:"assignments"`
	Comparisons     []Comparison           `json:"comparisons"`
	ArithmeticOps   []ArithmeticOp         `json:"arithmetic_ops"`
	SignalDeps      []SignalDep            `json:"signal_deps"`
	CDCCrossings    []CDCCrossing          `json:"cdc_crossings"`
	Processes       []Process              `json:"processes"`
	Variables       []VariableDecl         `json:"variables"`
	ProcedureCalls  []ProcedureCall        `json:"procedure_calls"`
	FunctionCalls   []FunctionCall         `json:"function_calls"`
	WaitStatements  []WaitStatement        `json:"wait_statements"`
	Generates       []GenerateStatement    `json:"generates"`
	Configurations  []Configuration        `json:"configurations"`
	Types           []TypeDeclaration      `json:"types"`
	Subtypes        []SubtypeDeclaration   `json:"subtypes"`
	Functions       []FunctionDeclaration  `json:"functions"`
	Procedures      []ProcedureDeclaration `json:"procedures"`
	Constants       []ConstantDeclaration  `json:"constants"`
	VerifBlocks     []VerificationBlock    `json:"verification_blocks"`
	VerifTags       []VerificationTag      `json:"verification_tags"`
	VerifTagErrors  []VerificationTagError `json:"verification_tag_errors"`
	Config          LintConfig             `json:"config"`
}

// FileCount reports the number of distinct files contributing facts, used by
// SingleFileMode.
func (s *Store) FileCount() int { return len(s.Files) }

// eq is a case-insensitive name equality helper; every comparison in this
// package and its callers must route through it or strings.EqualFold
// directly per the global case-insensitivity invariant (spec §3).
func eq(a, b string) bool { return strings.EqualFold(a, b) }

// IsClockName reports whether name follows a conventional clock-signal
// naming pattern ("clk", "clock", "sys_clk", "clk_50mhz", ...).
func IsClockName(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	return n == "clk" ||
		n == "clock" ||
		strings.HasSuffix(n, "_clk") ||
		strings.HasPrefix(n, "clk_") ||
		strings.HasSuffix(n, "_clock")
}

// IsResetName reports whether name follows a conventional reset-signal
// naming pattern.
func IsResetName(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	if strings.Contains(n, "reset") {
		return true
	}
	if n == "rst" || n == "rstn" {
		return true
	}
	return strings.HasPrefix(n, "rst_") ||
		strings.HasPrefix(n, "rstn_") ||
		strings.HasSuffix(n, "_rst") ||
		strings.HasSuffix(n, "_rstn") ||
		strings.Contains(n, "_rst_") ||
		strings.Contains(n, "_rstn_")
}

// IsTestbenchName reports whether name looks like a testbench entity or
// architecture name.
func IsTestbenchName(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	return strings.Contains(n, "_tb") ||
		strings.Contains(n, "tb_") ||
		strings.HasSuffix(n, "tb") ||
		strings.Contains(n, "test") ||
		strings.Contains(n, "bench") ||
		strings.Contains(n, "bfm") ||
		strings.Contains(n, "verification")
}

// singleBitTypes are VHDL types that denote exactly one bit.
var singleBitTypes = map[string]bool{
	"std_logic": true,
	"bit":       true,
}

// IsSingleBitType reports whether typeName denotes a single-bit signal type,
// case-insensitively, ignoring surrounding whitespace.
func IsSingleBitType(typeName string) bool {
	return singleBitTypes[strings.ToLower(strings.TrimSpace(typeName))]
}

// resolvedTypes are VHDL types whose signals may legally have multiple
// concurrent drivers (resolved subtypes), per spec §9 Open Question 2.
var resolvedTypes = map[string]bool{
	"std_logic":        true,
	"std_logic_vector": true,
}

// IsResolvedType reports whether typeName is a resolved (multi-driver-legal)
// type. Unresolved scalar types (e.g. bit, integer) are not.
func IsResolvedType(typeName string) bool {
	base := baseTypeNameInternal(typeName)
	return resolvedTypes[base]
}

// IsResolvedSignal reports whether sig's declared type is resolved. This
// gates direct_combinational_loop and related rules (Open Question 2):
// resolved signals may be driven from multiple concurrent sources by design
// (e.g. wired-OR busses) and must not be flagged as multi-driven or looped
// purely on driver count.
func IsResolvedSignal(sig Signal) bool {
	return IsResolvedType(sig.Type)
}

// IsUnresolvedScalarType reports whether typeName is a scalar type that is
// not resolved (e.g. bit, integer, natural) — the complement used when a
// rule specifically wants to exclude resolved signals but still accept
// scalars over composites.
func IsUnresolvedScalarType(typeName string) bool {
	base := baseTypeNameInternal(typeName)
	if resolvedTypes[base] {
		return false
	}
	return singleBitTypes[base] || base == "integer" || base == "natural" ||
		base == "positive" || base == "boolean" || base == "character"
}

var compositeTypeTokens = map[string]bool{
	"array":  true,
	"record": true,
}

// IsCompositeType reports whether typeName denotes an array or record type
// — i.e. not a scalar. Array-like suffixes ("_vector", "_array") and the
// bracket convention "foo(7 downto 0)" both count.
func IsCompositeType(typeName string) bool {
	t := strings.ToLower(strings.TrimSpace(typeName))
	if t == "" {
		return false
	}
	if strings.ContainsAny(t, "()") {
		return true
	}
	if strings.HasSuffix(t, "_vector") && t != "std_logic_vector" {
		return true
	}
	if strings.HasSuffix(t, "_array") {
		return true
	}
	return compositeTypeTokens[t]
}

// IsNamedCompositeType reports whether typeDecl is a record or array
// TypeDeclaration, i.e. a user-named composite type rather than a scalar
// or enum.
func IsNamedCompositeType(typeDecl TypeDeclaration) bool {
	return typeDecl.Kind == TypeRecord || typeDecl.Kind == TypeArray
}

// IsCompositeIdentifier reports whether name looks like a selected or
// indexed reference into a composite object (contains '.' or '(').
func IsCompositeIdentifier(name string) bool {
	return strings.ContainsAny(name, ".(")
}

func baseTypeNameInternal(typeName string) string {
	t := strings.ToLower(strings.TrimSpace(typeName))
	if idx := strings.IndexAny(t, "( "); idx >= 0 {
		t = t[:idx]
	}
	if idx := strings.LastIndex(t, "."); idx >= 0 {
		t = t[idx+1:]
	}
	return t
}

// BaseTypeName strips generic constraints ("(7 downto 0)") and library
// qualification ("ieee.std_logic") from a type reference, returning the
// bare type name lowercased.
func BaseTypeName(typeName string) string { return baseTypeNameInternal(typeName) }

// skipPrefixes/skipSuffixes are the common local-variable naming
// conventions that are never worth flagging for naming-convention or
// magic-number style rules.
var skipPrefixes = []string{"c_", "g_"}
var skipSuffixes = []string{"_c", "_v", "_f", "_g"}

// loopVariableNames are conventional generate/for-loop induction variable
// names, always exempt from naming and unused-signal checks.
var loopVariableNames = map[string]bool{
	"i": true, "j": true, "k": true, "n": true, "r": true,
	"idx": true, "index": true, "x": true, "y": true,
}

// vhdlTypeKeywords are the predefined VHDL type names, exempt from
// user-naming-convention rules since they are never user declarations.
var vhdlTypeKeywords = map[string]bool{
	"std_logic": true, "std_logic_vector": true, "std_ulogic": true,
	"std_ulogic_vector": true, "bit": true, "bit_vector": true,
	"integer": true, "natural": true, "positive": true, "boolean": true,
	"character": true, "string": true, "signed": true, "unsigned": true,
	"time": true, "real": true, "severity_level": true, "file_open_kind": true,
	"file_open_status": true,
}

// vhdlAttributeNames are predefined VHDL attribute identifiers ('event,
// 'stable, etc., without the leading tick), exempt from naming checks.
var vhdlAttributeNames = map[string]bool{
	"event": true, "stable": true, "active": true, "quiet": true,
	"transaction": true, "last_event": true, "last_active": true,
	"last_value": true, "length": true, "range": true, "reverse_range": true,
	"high": true, "low": true, "left": true, "right": true,
	"ascending": true, "image": true, "value": true, "pos": true, "val": true,
	"succ": true, "pred": true, "leftof": true, "rightof": true,
}

// vhdlConversionFuncNames are standard conversion/reduction function names
// (to_integer, to_unsigned, resize, ...), exempt from naming checks.
var vhdlConversionFuncNames = map[string]bool{
	"to_integer": true, "to_unsigned": true, "to_signed": true,
	"to_std_logic_vector": true, "to_bit_vector": true, "resize": true,
	"conv_integer": true, "conv_std_logic_vector": true, "conv_unsigned": true,
	"conv_signed": true, "shift_left": true, "shift_right": true,
	"rotate_left": true, "rotate_right": true, "and_reduce": true, "or_reduce": true,
	"xor_reduce": true, "rising_edge": true, "falling_edge": true,
}

// vhdlReservedWords are VHDL-2008 reserved words, always exempt from any
// naming-convention rule (they cannot be user identifiers, but appear in
// expression text the fact model captures verbatim).
var vhdlReservedWords = map[string]bool{
	"access": true, "after": true, "alias": true, "all": true, "and": true,
	"architecture": true, "array": true, "assert": true, "attribute": true,
	"begin": true, "block": true, "body": true, "buffer": true, "bus": true,
	"case": true, "component": true, "configuration": true, "constant": true,
	"disconnect": true, "downto": true, "else": true, "elsif": true, "end": true,
	"entity": true, "exit": true, "file": true, "for": true, "function": true,
	"generate": true, "generic": true, "guarded": true, "if": true, "impure": true,
	"in": true, "inertial": true, "inout": true, "is": true, "label": true,
	"library": true, "linkage": true, "literal": true, "loop": true, "map": true,
	"mod": true, "nand": true, "new": true, "next": true, "nor": true, "not": true,
	"null": true, "of": true, "on": true, "open": true, "or": true, "others": true,
	"out": true, "package": true, "port": true, "postponed": true, "procedure": true,
	"process": true, "pure": true, "range": true, "record": true, "register": true,
	"reject": true, "rem": true, "report": true, "return": true, "select": true,
	"severity": true, "shared": true, "signal": true, "subtype": true, "then": true,
	"to": true, "transport": true, "type": true, "unaffected": true, "units": true,
	"until": true, "use": true, "variable": true, "wait": true, "when": true,
	"while": true, "with": true, "xnor": true, "xor": true,
}

// fileModeWords/logLevelWords are common identifier tokens used in
// testbench scaffolding, never worth flagging.
var fileModeWords = map[string]bool{"read_mode": true, "write_mode": true, "append_mode": true}
var logLevelWords = map[string]bool{"note": true, "warning": true, "error": true, "failure": true}

var allCapsPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*_?$`)

// IsSkipName reports whether name matches any of the broad set of
// conventions that should never be flagged by naming/style/magic-number
// rules: compile-time-constant prefixes/suffixes, ALL-CAPS identifiers,
// conventional loop variables, VHDL type/attribute/conversion-function
// names, and reserved words.
func IsSkipName(name string) bool {
	if name == "" {
		return true
	}
	lower := strings.ToLower(name)
	for _, p := range skipPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	for _, s := range skipSuffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	if loopVariableNames[lower] {
		return true
	}
	if allCapsPattern.MatchString(name) {
		return true
	}
	if vhdlTypeKeywords[lower] || vhdlAttributeNames[lower] ||
		vhdlConversionFuncNames[lower] || vhdlReservedWords[lower] {
		return true
	}
	if fileModeWords[lower] || logLevelWords[lower] {
		return true
	}
	return false
}

// ValidInstancePrefix reports whether name begins with one of the
// conventional instance-label prefixes ("u_", "i_", "inst_").
func ValidInstancePrefix(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasPrefix(lower, "u_") || strings.HasPrefix(lower, "i_") ||
		strings.HasPrefix(lower, "inst_")
}

// IsSignedType / IsUnsignedType report whether typeName is (an alias of)
// ieee.numeric_std's signed/unsigned.
func IsSignedType(typeName string) bool   { return baseTypeNameInternal(typeName) == "signed" }
func IsUnsignedType(typeName string) bool { return baseTypeNameInternal(typeName) == "unsigned" }

// IsStandardArchName reports whether name is one of the conventional
// architecture names ("rtl", "behavioral", "structural", "sim").
func IsStandardArchName(name string) bool {
	switch strings.ToLower(name) {
	case "rtl", "behavioral", "behavioural", "structural", "sim", "synth":
		return true
	default:
		return false
	}
}

// IsSharedVariable reports whether v is a VHDL shared variable: one declared
// at architecture scope rather than inside a process, which the facts
// record as an empty InProcess.
func IsSharedVariable(v VariableDecl) bool {
	return v.InProcess == ""
}

// SingleFileMode reports whether the store was built from a single source
// file, per Open Question 1: when true, undeclared_signal_usage is
// suppressed for any symbol, since there is no sibling file that could
// possibly declare it and a partial single-file view should not be treated
// as proof of an undeclared signal.
func SingleFileMode(s *Store) bool { return s.FileCount() <= 1 }

// EntityExists reports whether an Entity named name (case-insensitively,
// ignoring any "lib." qualification) is present in the store.
func EntityExists(s *Store, name string) bool {
	base := BaseEntityName(name)
	for _, e := range s.Entities {
		if eq(e.Name, base) {
			return true
		}
	}
	return false
}

// BaseEntityName strips a "library." qualification prefix from an entity
// reference, if present.
func BaseEntityName(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

// BaseArchName is an alias of BaseEntityName applied to architecture
// references for symmetry with the original helpers module.
func BaseArchName(name string) string { return BaseEntityName(name) }

// ArchMissingEntityForContext reports whether arch's referenced entity is
// absent from the store — the undeclared_signal_usage suppression
// condition's second clause (Open Question 1).
func ArchMissingEntityForContext(s *Store, arch Architecture) bool {
	return !EntityExists(s, arch.EntityName)
}

// FileHasUseClause reports whether file carries a "use" clause that could
// plausibly resolve an otherwise-undeclared symbol (the third suppression
// clause of Open Question 1) — conservatively true for any "use" in the
// file, since resolving the clause's target is out of scope (§1 — parsing
// is not this engine's job).
func FileHasUseClause(s *Store, file string) bool {
	for _, u := range s.UseClauses {
		if eq(u.File, file) {
			return true
		}
	}
	return false
}

// archIsTestbench reports whether an architecture name denotes a testbench
// architecture, by checking the owning Architecture's and Entity's names.
func archIsTestbench(s *Store, archName string) bool {
	if IsTestbenchName(archName) {
		return true
	}
	for _, a := range s.Architectures {
		if eq(a.Name, archName) {
			if IsTestbenchName(a.EntityName) {
				return true
			}
			for _, e := range s.Entities {
				if eq(e.Name, a.EntityName) && len(e.Ports) == 0 {
					return IsTestbenchName(e.Name)
				}
			}
		}
	}
	return false
}

// ProcessInTestbench reports whether p lives in a testbench architecture.
func ProcessInTestbench(s *Store, p Process) bool { return archIsTestbench(s, p.InArch) }

// ConcurrentInTestbench reports whether a is in a testbench architecture.
func ConcurrentInTestbench(s *Store, a ConcurrentAssignment) bool {
	return archIsTestbench(s, a.InArch)
}

// FileInTestbench reports whether every architecture in file is a
// testbench architecture (used to suppress structural rules in pure
// verification files).
func FileInTestbench(s *Store, file string) bool {
	found := false
	for _, a := range s.Architectures {
		if eq(a.File, file) {
			found = true
			if !archIsTestbench(s, a.Name) {
				return false
			}
		}
	}
	return found
}

// HasAllSensitivity reports whether p's sensitivity list is the VHDL-2008
// "all" keyword.
func HasAllSensitivity(p Process) bool {
	return len(p.SensitivityList) == 1 && strings.EqualFold(p.SensitivityList[0], "all")
}

// SensitivityListHasClock reports whether any signal in p's sensitivity
// list is a conventional clock name.
func SensitivityListHasClock(p Process) bool {
	for _, s := range p.SensitivityList {
		if IsClockName(s) {
			return true
		}
	}
	return false
}

// SigInSensitivity reports whether signal appears in p's sensitivity list.
func SigInSensitivity(p Process, signal string) bool {
	return SignalInList(p.SensitivityList, signal)
}

// SigInReads reports whether signal appears in p's read set.
func SigInReads(p Process, signal string) bool {
	return SignalInList(p.ReadSignals, signal)
}

// SignalInList reports whether signal is present in list, case-insensitively.
func SignalInList(list []string, signal string) bool {
	for _, s := range list {
		if eq(s, signal) {
			return true
		}
	}
	return false
}

// counterNamePatterns are substrings conventionally found in counter signal
// names.
var counterNamePatterns = []string{"count", "cnt", "counter", "timer", "tick"}

// IsCounterName reports whether name follows a conventional counter-signal
// naming pattern.
func IsCounterName(name string) bool {
	n := strings.ToLower(name)
	for _, p := range counterNamePatterns {
		if strings.Contains(n, p) {
			return true
		}
	}
	return false
}

// stateNamePatterns are substrings conventionally found in FSM state-register
// names.
var stateNamePatterns = []string{"state", "fsm", "mode"}

// IsStateName reports whether name follows a conventional FSM state-signal
// naming pattern.
func IsStateName(name string) bool {
	n := strings.ToLower(name)
	for _, p := range stateNamePatterns {
		if strings.Contains(n, p) {
			return true
		}
	}
	return false
}

// IsNextStateName reports whether name follows a conventional FSM
// next-state signal naming pattern.
func IsNextStateName(name string) bool {
	lower := strings.ToLower(name)
	return lower == "next_state" || lower == "nstate" || lower == "n_state" ||
		strings.HasSuffix(lower, "_next_state") || strings.HasSuffix(lower, "_nstate")
}

// IsEnumLiteral reports whether value matches one of typeDecl's declared
// enum literals, case-insensitively.
func IsEnumLiteral(typeDecl TypeDeclaration, value string) bool {
	for _, lit := range typeDecl.EnumLiterals {
		if eq(lit, value) {
			return true
		}
	}
	return false
}

// IsConstant reports whether name is declared as a constant in the store.
func IsConstant(s *Store, name string) bool {
	for _, c := range s.Constants {
		if eq(c.Name, name) {
			return true
		}
	}
	return false
}

// IsActualSignal reports whether actual refers to a real signal/port object
// rather than a literal, "open", or a static expression — i.e. it is
// resolvable against the store's signal and port tables. Composite/indexed
// actuals are checked against their base identifier.
func IsActualSignal(s *Store, actual string) bool {
	a := strings.TrimSpace(actual)
	if a == "" || strings.EqualFold(a, "open") {
		return false
	}
	base := a
	if IsCompositeIdentifier(a) {
		if idx := strings.IndexAny(a, ".("); idx >= 0 {
			base = a[:idx]
		}
	}
	if _, err := strconv.ParseFloat(base, 64); err == nil {
		return false
	}
	if strings.HasPrefix(base, "\"") || strings.HasPrefix(base, "'") {
		return false
	}
	for _, sig := range s.Signals {
		if eq(sig.Name, base) {
			return true
		}
	}
	for _, p := range s.Entities {
		for _, port := range p.Ports {
			if eq(port.Name, base) {
				return true
			}
		}
	}
	return IsConstant(s, base)
}

// RuleIsDisabled reports whether ruleID is disabled for this evaluation:
// either explicitly set to "off" in LintConfig, or optional and not
// explicitly enabled.
func RuleIsDisabled(cfg LintConfig, ruleID string, optional bool) bool {
	key := strings.ToLower(ruleID)
	if cfg.Rules != nil {
		if sev, ok := cfg.Rules[key]; ok && strings.EqualFold(sev, "off") {
			return true
		}
	}
	if optional {
		if cfg.EnabledOptional == nil {
			return true
		}
		enabled, ok := cfg.EnabledOptional[key]
		return !ok || !enabled
	}
	return false
}

// GetRuleSeverity resolves the effective severity for ruleID: an explicit
// LintConfig override if present, else def (the rule's own default).
func GetRuleSeverity(cfg LintConfig, ruleID string, def string) string {
	key := strings.ToLower(ruleID)
	if cfg.Rules != nil {
		if sev, ok := cfg.Rules[key]; ok && sev != "" {
			return sev
		}
	}
	return def
}

// IsThirdPartyFile reports whether file matches one of the configured
// third-party paths exactly, as a path prefix (a vendored directory such as
// "vendor/"), or as a path suffix.
func IsThirdPartyFile(cfg LintConfig, file string) bool {
	for _, p := range cfg.ThirdPartyPaths {
		if file == p || strings.HasPrefix(file, p) || strings.HasSuffix(file, p) {
			return true
		}
	}
	return false
}
