package main

import (
	"strconv"

	"github.com/goccy/go-json"
)

// dispatch routes one parsed command. The command set is small and
// fixed, so a switch is the whole routing layer.
func (s *session) dispatch(name string, args [][]byte) {
	switch name {
	case "PING":
		s.handlePing(args)
	case "BD.INFO":
		s.handleInfo(args)
	case "BD.COUNT":
		s.handleCount(args)
	case "BD.SELECT":
		s.handleSelect(args)
	default:
		s.writeError("ERR unknown command '" + name + "'")
	}
}

func (s *session) handlePing(args [][]byte) {
	switch len(args) {
	case 0:
		s.writeSimple("PONG")
	case 1:
		s.writeBulk(args[0])
	default:
		s.wrongArity("PING")
	}
}

// filterInfo is the BD.INFO payload.
type filterInfo struct {
	Layout           string `json:"layout"`
	Bins             uint32 `json:"bins"`
	HashFuncs        uint8  `json:"hash_functions"`
	KmerSize         uint8  `json:"kmer_size"`
	Bits             uint64 `json:"bits"`
	BlockBitSize     uint64 `json:"block_bit_size"`
	Blocks           uint64 `json:"blocks"`
	Fingerprint      string `json:"fingerprint"`
	TotalConnections uint64 `json:"total_connections"`
	TotalCommands    uint64 `json:"total_commands"`
}

func (s *session) handleInfo(args [][]byte) {
	if len(args) != 0 {
		s.wrongArity("BD.INFO")
		return
	}

	app := s.app
	info := filterInfo{
		Layout:           app.dir.Kind().String(),
		Bins:             app.dir.Bins(),
		HashFuncs:        app.dir.HashFuncs(),
		KmerSize:         app.dir.KmerSize(),
		Bits:             app.dir.Bits(),
		BlockBitSize:     app.dir.BlockBitSize(),
		Blocks:           app.dir.Blocks(),
		Fingerprint:      strconv.FormatUint(app.fingerprint, 16),
		TotalConnections: app.totalConnections.Load(),
		TotalCommands:    app.totalCommands.Load(),
	}

	payload, err := json.Marshal(info)
	if err != nil {
		s.writeError("ERR failed to encode filter info")
		return
	}
	s.writeBulk(payload)
}

func (s *session) handleCount(args [][]byte) {
	if len(args) != 1 {
		s.wrongArity("BD.COUNT")
		return
	}

	counts := make([]uint32, s.app.dir.Bins())
	if err := s.app.dir.Count(counts, args[0]); err != nil {
		s.writeError("ERR " + err.Error())
		return
	}
	s.writeUintArray(counts)
}

func (s *session) handleSelect(args [][]byte) {
	if len(args) != 2 {
		s.wrongArity("BD.SELECT")
		return
	}

	threshold, err := strconv.ParseUint(string(args[0]), 10, 32)
	if err != nil {
		s.writeError("ERR threshold is not an integer or out of range")
		return
	}

	selected := make([]bool, s.app.dir.Bins())
	if err := s.app.dir.Select(selected, args[1], uint32(threshold)); err != nil {
		s.writeError("ERR " + err.Error())
		return
	}
	s.writeBoolArray(selected)
}
