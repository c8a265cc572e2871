// Wire protocol writing. Every reply is assembled in the session's
// scratch buffer and handed to the buffered writer in a single Write,
// so replies are never interleaved and the per-bin array responses,
// the hot path of this server, stop allocating after the first
// command warms the buffer.
package main

import "strconv"

func (s *session) writeSimple(msg string) {
	s.scratch = append(s.scratch[:0], '+')
	s.scratch = append(s.scratch, msg...)
	s.scratch = append(s.scratch, '\r', '\n')
	_, _ = s.w.Write(s.scratch)
}

func (s *session) writeError(msg string) {
	s.scratch = append(s.scratch[:0], '-')
	s.scratch = append(s.scratch, msg...)
	s.scratch = append(s.scratch, '\r', '\n')
	_, _ = s.w.Write(s.scratch)
}

func (s *session) writeBulk(data []byte) {
	s.scratch = append(s.scratch[:0], '$')
	s.scratch = strconv.AppendInt(s.scratch, int64(len(data)), 10)
	s.scratch = append(s.scratch, '\r', '\n')
	s.scratch = append(s.scratch, data...)
	s.scratch = append(s.scratch, '\r', '\n')
	_, _ = s.w.Write(s.scratch)
}

// writeUintArray encodes a RESP integer array, the shape of every
// per-bin count result.
func (s *session) writeUintArray(values []uint32) {
	s.scratch = append(s.scratch[:0], '*')
	s.scratch = strconv.AppendInt(s.scratch, int64(len(values)), 10)
	s.scratch = append(s.scratch, '\r', '\n')
	for _, v := range values {
		s.scratch = append(s.scratch, ':')
		s.scratch = strconv.AppendUint(s.scratch, uint64(v), 10)
		s.scratch = append(s.scratch, '\r', '\n')
	}
	_, _ = s.w.Write(s.scratch)
}

// writeBoolArray encodes a selection as a RESP array of 0/1 integers.
func (s *session) writeBoolArray(values []bool) {
	s.scratch = append(s.scratch[:0], '*')
	s.scratch = strconv.AppendInt(s.scratch, int64(len(values)), 10)
	s.scratch = append(s.scratch, '\r', '\n')
	for _, v := range values {
		if v {
			s.scratch = append(s.scratch, ':', '1', '\r', '\n')
		} else {
			s.scratch = append(s.scratch, ':', '0', '\r', '\n')
		}
	}
	_, _ = s.w.Write(s.scratch)
}

func (s *session) wrongArity(name string) {
	s.writeError("ERR wrong number of arguments for '" + name + "' command")
}
