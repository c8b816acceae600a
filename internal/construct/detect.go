// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package construct implements the ConstructDetector (spec §4.5): scanning
// the fact model for recognizable hardware idioms — FSM, Counter,
// ReadyValid handshake, FIFO — so the VerificationPlanner can require the
// verification checks each idiom implies. Detection is necessarily
// heuristic; where a candidate's role bindings cannot be determined
// unambiguously, an AmbiguousConstruct is reported instead of a silent
// guess (spec §9's ambiguity-vs-silent-skip principle).
package construct

import (
	"sort"
	"strings"

	"github.com/AleutianAI/vhdl-sentinel/internal/facts"
	"github.com/AleutianAI/vhdl-sentinel/internal/result"
)

// Kind identifies a detected construct's category.
type Kind int

const (
	KindFSM Kind = iota
	KindCounter
	KindReadyValid
	KindFIFO
)

// Label returns the construct kind's human-readable name, used as the
// scope-key prefix when matching verification tags against a construct.
func (k Kind) Label() string {
	switch k {
	case KindFSM:
		return "fsm"
	case KindCounter:
		return "counter"
	case KindReadyValid:
		return "rv"
	case KindFIFO:
		return "fifo"
	default:
		return "unknown"
	}
}

// Construct is one detected instance of a hardware idiom.
type Construct struct {
	Kind     Kind
	InArch   string
	File     string
	Line     int
	Bindings map[string]string
}

// Report is the complete output of one detection pass.
type Report struct {
	Constructs []Construct
	Ambiguous  []result.AmbiguousConstruct
}

// Detect runs every sub-detector over store and deduplicates results by
// (kind, architecture, sorted bindings) — the same construct reported more
// than once with identical bindings collapses to a single entry, while
// constructs of different kinds are always kept apart.
func Detect(s *facts.Store) Report {
	var all []Construct
	all = append(all, detectFSMConstructs(s)...)
	all = append(all, detectCounterConstructs(s)...)

	var rep Report
	rv, ambiguous := detectReadyValidConstructs(s)
	all = append(all, rv...)
	rep.Ambiguous = append(rep.Ambiguous, ambiguous...)

	fifo, fifoAmbiguous := detectFIFOConstructs(s)
	all = append(all, fifo...)
	rep.Ambiguous = append(rep.Ambiguous, fifoAmbiguous...)

	rep.Constructs = dedup(all)
	return rep
}

func dedup(constructs []Construct) []Construct {
	seen := make(map[string]bool)
	var out []Construct
	for _, c := range constructs {
		k := dedupKey(c)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	return out
}

func dedupKey(c Construct) string {
	keys := make([]string, 0, len(c.Bindings))
	for k := range c.Bindings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(c.Kind.Label())
	b.WriteByte('|')
	b.WriteString(strings.ToLower(c.InArch))
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strings.ToLower(c.Bindings[k]))
	}
	return b.String()
}

// enumTypesByName indexes the store's enum TypeDeclarations by lowercased
// name, shared by the FSM detector.
func enumTypesByName(s *facts.Store) map[string]facts.TypeDeclaration {
	m := make(map[string]facts.TypeDeclaration)
	for _, t := range s.Types {
		if t.Kind == facts.TypeEnum {
			m[strings.ToLower(t.Name)] = t
		}
	}
	return m
}

// isFSMCase reports whether c's expression is a signal of enum type — the
// detection condition for a case statement that implements FSM state
// dispatch.
func isFSMCase(s *facts.Store, c facts.CaseStatement, enums map[string]facts.TypeDeclaration) bool {
	for _, sig := range s.Signals {
		if !strings.EqualFold(sig.Name, c.Expression) {
			continue
		}
		_, ok := enums[strings.ToLower(facts.BaseTypeName(sig.Type))]
		return ok
	}
	return false
}

// detectFSMConstructs finds one Construct per architecture containing a
// case statement dispatched on an enum-typed state signal.
func detectFSMConstructs(s *facts.Store) []Construct {
	enums := enumTypesByName(s)
	seen := make(map[string]bool)
	var out []Construct
	for _, c := range s.CaseStatements {
		if !isFSMCase(s, c, enums) {
			continue
		}
		if seen[strings.ToLower(c.InArch)] {
			continue
		}
		seen[strings.ToLower(c.InArch)] = true
		out = append(out, Construct{
			Kind: KindFSM, InArch: c.InArch, File: c.File, Line: c.Line,
			Bindings: map[string]string{"state": c.Expression},
		})
	}
	return out
}

// signalIsNumeric reports whether sig's type is a numeric type suitable
// for a counter: unsigned, signed, integer, natural, or positive.
func signalIsNumeric(sig facts.Signal) bool {
	base := facts.BaseTypeName(sig.Type)
	return facts.IsUnsignedType(base) || facts.IsSignedType(base) ||
		base == "integer" || base == "natural" || base == "positive"
}

// detectCounterConstructs finds signals that are both conventionally named
// like a counter and of a numeric type, assigned within a sequential
// process — the minimal signature of a counter register.
func detectCounterConstructs(s *facts.Store) []Construct {
	var out []Construct
	for _, sig := range s.Signals {
		if !facts.IsCounterName(sig.Name) || !signalIsNumeric(sig) {
			continue
		}
		if !assignedInSequentialProcess(s, sig.InEntity, sig.Name) {
			continue
		}
		out = append(out, Construct{
			Kind: KindCounter, InArch: sig.InEntity, File: sig.File, Line: sig.Line,
			Bindings: map[string]string{"counter": sig.Name},
		})
	}
	return out
}

func assignedInSequentialProcess(s *facts.Store, arch, signal string) bool {
	for _, p := range s.Processes {
		if !strings.EqualFold(p.InArch, arch) || !p.IsSequential {
			continue
		}
		if facts.SignalInList(p.AssignedSignals, signal) {
			return true
		}
	}
	return false
}

// isReadyName and isValidName recognize the two halves of the standard
// ready/valid port-name pair: a case-insensitive "ready"/"valid" token
// anywhere in the name.
func isReadyName(name string) bool { return strings.Contains(strings.ToLower(name), "ready") }
func isValidName(name string) bool { return strings.Contains(strings.ToLower(name), "valid") }

// detectReadyValidConstructs scans each entity's ports for a ready/valid
// pair. When both a ready-named and valid-named port exist but their
// directions do not clearly establish producer/consumer roles (both
// inputs, both outputs, or more than one candidate of either polarity),
// the construct is reported as ambiguous instead of guessing which port is
// which.
func detectReadyValidConstructs(s *facts.Store) ([]Construct, []result.AmbiguousConstruct) {
	var constructs []Construct
	var ambiguous []result.AmbiguousConstruct

	for _, e := range s.Entities {
		var readyPorts, validPorts []facts.Port
		for _, p := range e.Ports {
			if isReadyName(p.Name) {
				readyPorts = append(readyPorts, p)
			}
			if isValidName(p.Name) {
				validPorts = append(validPorts, p)
			}
		}
		if len(readyPorts) == 0 || len(validPorts) == 0 {
			continue
		}
		if len(readyPorts) == 1 && len(validPorts) == 1 && readyPorts[0].Direction != validPorts[0].Direction {
			constructs = append(constructs, Construct{
				Kind: KindReadyValid, InArch: e.Name, File: e.File, Line: e.Line,
				Bindings: map[string]string{"ready": readyPorts[0].Name, "valid": validPorts[0].Name},
			})
			continue
		}
		candidates := map[string][]string{}
		for _, p := range readyPorts {
			candidates["ready"] = append(candidates["ready"], p.Name)
		}
		for _, p := range validPorts {
			candidates["valid"] = append(candidates["valid"], p.Name)
		}
		ambiguous = append(ambiguous, result.AmbiguousConstruct{
			Kind: "ready_valid", Scope: e.Name, File: e.File, Line: e.Line,
			Candidates: candidates,
		})
	}
	return constructs, ambiguous
}

// arrayTypeNames indexes array TypeDeclarations by lowercased name.
func arrayTypeNames(s *facts.Store) map[string]bool {
	m := make(map[string]bool)
	for _, t := range s.Types {
		if t.Kind == facts.TypeArray {
			m[strings.ToLower(t.Name)] = true
		}
	}
	return m
}

func arraySignalsByArch(s *facts.Store, arrays map[string]bool) map[string][]facts.Signal {
	m := make(map[string][]facts.Signal)
	for _, sig := range s.Signals {
		if !arrays[strings.ToLower(facts.BaseTypeName(sig.Type))] && !facts.IsCompositeType(sig.Type) {
			continue
		}
		m[strings.ToLower(sig.InEntity)] = append(m[strings.ToLower(sig.InEntity)], sig)
	}
	return m
}

func processesWritingSignal(s *facts.Store, arch, signal string) []facts.Process {
	var out []facts.Process
	for _, p := range s.Processes {
		if strings.EqualFold(p.InArch, arch) && facts.SignalInList(p.AssignedSignals, signal) {
			out = append(out, p)
		}
	}
	return out
}

func processesReadingSignal(s *facts.Store, arch, signal string) []facts.Process {
	var out []facts.Process
	for _, p := range s.Processes {
		if strings.EqualFold(p.InArch, arch) && facts.SignalInList(p.ReadSignals, signal) {
			out = append(out, p)
		}
	}
	return out
}

// selectControlInput picks the first input port of an entity whose name
// suggests it gates writes (wr_en/push) or reads (rd_en/pop).
func selectControlInput(ports []facts.Port, tokens ...string) (facts.Port, bool) {
	for _, p := range ports {
		if p.Direction != facts.DirIn {
			continue
		}
		lower := strings.ToLower(p.Name)
		for _, t := range tokens {
			if strings.Contains(lower, t) {
				return p, true
			}
		}
	}
	return facts.Port{}, false
}

func selectStatusOutput(ports []facts.Port, tokens ...string) (facts.Port, bool) {
	for _, p := range ports {
		if p.Direction != facts.DirOut {
			continue
		}
		lower := strings.ToLower(p.Name)
		for _, t := range tokens {
			if strings.Contains(lower, t) {
				return p, true
			}
		}
	}
	return facts.Port{}, false
}

// detectFIFOConstructs finds an entity with an array-typed (or otherwise
// composite) internal signal written by one process and read by another,
// plus write/read enable inputs and full/empty status outputs — the
// minimal structural signature of a FIFO.
func detectFIFOConstructs(s *facts.Store) ([]Construct, []result.AmbiguousConstruct) {
	arrays := arrayTypeNames(s)
	byArch := arraySignalsByArch(s, arrays)

	var constructs []Construct
	var ambiguous []result.AmbiguousConstruct

	for _, e := range s.Entities {
		archSignals := byArch[strings.ToLower(e.Name)]
		for _, sig := range archSignals {
			writers := processesWritingSignal(s, e.Name, sig.Name)
			readers := processesReadingSignal(s, e.Name, sig.Name)
			if len(writers) == 0 || len(readers) == 0 {
				continue
			}
			wrEnable, wrOK := selectControlInput(e.Ports, "wr_en", "write_en", "push")
			rdEnable, rdOK := selectControlInput(e.Ports, "rd_en", "read_en", "pop")
			full, fullOK := selectStatusOutput(e.Ports, "full")
			empty, emptyOK := selectStatusOutput(e.Ports, "empty")
			if !wrOK || !rdOK {
				continue
			}
			if !fullOK && !emptyOK {
				continue
			}
			bindings := map[string]string{
				"buffer": sig.Name,
				"wr_en":  wrEnable.Name,
				"rd_en":  rdEnable.Name,
			}
			if fullOK {
				bindings["full"] = full.Name
			}
			if emptyOK {
				bindings["empty"] = empty.Name
			}
			constructs = append(constructs, Construct{
				Kind: KindFIFO, InArch: e.Name, File: e.File, Line: e.Line, Bindings: bindings,
			})
		}
	}
	return constructs, ambiguous
}

// RequiredChecksFor returns the verification check ids a detected
// construct of this kind must have, per spec §4.5's exact mapping.
func RequiredChecksFor(kind Kind) []string {
	switch kind {
	case KindFSM:
		return []string{"fsm.legal_state", "fsm.reset_known", "cover.fsm.transition_taken"}
	case KindReadyValid:
		return []string{"rv.stable_while_stalled", "cover.rv.handshake"}
	case KindFIFO:
		return []string{"fifo.no_read_empty", "fifo.no_write_full", "cover.fifo.activity"}
	case KindCounter:
		return []string{"ctr.range", "ctr.step_rule", "cover.ctr.moved"}
	default:
		return nil
	}
}
