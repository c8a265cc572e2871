// Wire protocol reading.
//
// The server speaks the request subset of RESP so that redis-cli and
// stock Redis client libraries work unmodified. Two request forms are
// accepted:
//
//	*3\r\n$9\r\nBD.SELECT\r\n$1\r\n3\r\n$4\r\nACGT\r\n
//	BD.SELECT 3 ACGT
//
// The limits are sized for binning queries rather than a general data
// store: a command carries at most a name, a threshold and one query
// sequence, and a sequence argument is capped at 64MB, far beyond any
// read or assembled contig a client would classify. Oversized or
// malformed input earns the client an error reply and a closed
// connection.
package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	// maxCommandParts bounds one command at its name plus three
	// arguments, one more than the widest command takes.
	maxCommandParts = 4

	// maxSequenceBytes caps a single query sequence argument.
	maxSequenceBytes = 64 << 20

	// maxHeaderBytes bounds the *<n> and $<n> protocol header lines.
	maxHeaderBytes = 64
)

var (
	errProtocol     = errors.New("ERR protocol error")
	errQueryTooLong = errors.New("ERR argument exceeds the 64MB limit")
	errTooManyArgs  = errors.New("ERR too many arguments")
)

// isProtocolError reports whether err is the client's fault, so the
// session can send a diagnostic before hanging up. Transport errors
// (timeouts, resets, EOF) get no reply.
func isProtocolError(err error) bool {
	return errors.Is(err, errProtocol) ||
		errors.Is(err, errQueryTooLong) ||
		errors.Is(err, errTooManyArgs)
}

// readCommand returns the next command name, upper-cased, with its raw
// arguments. Arguments stay []byte so a query sequence flows to the
// filter without a string round trip; the slices are valid until the
// next readCommand call. An empty name with a nil error means a blank
// line or an empty array was consumed and there is nothing to answer.
func (s *session) readCommand() (string, [][]byte, error) {
	line, err := s.readLine(maxSequenceBytes + maxHeaderBytes)
	if err != nil {
		return "", nil, err
	}
	if len(line) == 0 {
		return "", nil, nil
	}
	if line[0] == '*' {
		return s.readArrayCommand(line)
	}

	parts := bytes.Fields(line)
	if len(parts) == 0 {
		return "", nil, nil
	}
	if len(parts) > maxCommandParts {
		return "", nil, errTooManyArgs
	}
	return strings.ToUpper(string(parts[0])), parts[1:], nil
}

func (s *session) readArrayCommand(header []byte) (string, [][]byte, error) {
	if len(header) > maxHeaderBytes {
		return "", nil, fmt.Errorf("%w: line too long", errProtocol)
	}
	n, err := strconv.Atoi(string(header[1:]))
	if err != nil {
		return "", nil, fmt.Errorf("%w: bad array header", errProtocol)
	}
	if n <= 0 {
		// Null (*-1) and empty (*0) arrays carry no command.
		return "", nil, nil
	}
	if n > maxCommandParts {
		return "", nil, errTooManyArgs
	}

	parts := make([][]byte, n)
	for i := range parts {
		if parts[i], err = s.readBulk(); err != nil {
			return "", nil, err
		}
	}
	return strings.ToUpper(string(parts[0])), parts[1:], nil
}

// readBulk consumes one $<length>\r\n<data>\r\n element. A null bulk
// ($-1) yields an empty argument.
func (s *session) readBulk() ([]byte, error) {
	header, err := s.readLine(maxHeaderBytes)
	if err != nil {
		return nil, err
	}
	if len(header) == 0 || header[0] != '$' {
		return nil, fmt.Errorf("%w: expected a bulk string", errProtocol)
	}
	length, err := strconv.Atoi(string(header[1:]))
	if err != nil || length < -1 {
		return nil, fmt.Errorf("%w: bad bulk length", errProtocol)
	}
	if length == -1 {
		return nil, nil
	}
	if length > maxSequenceBytes {
		return nil, errQueryTooLong
	}

	// Payload and its trailing CRLF in one read.
	buf := make([]byte, length+2)
	if _, err := io.ReadFull(s.r, buf); err != nil {
		return nil, err
	}
	if buf[length] != '\r' || buf[length+1] != '\n' {
		return nil, fmt.Errorf("%w: bulk string not terminated", errProtocol)
	}
	return buf[:length], nil
}

// readLine returns one line without its trailing CRLF. A line that
// outgrows the reader's buffer is accumulated; limit bounds the total
// so a client that never sends a newline cannot grow memory without
// bound.
func (s *session) readLine(limit int) ([]byte, error) {
	var acc []byte
	for {
		frag, err := s.r.ReadSlice('\n')
		if len(acc)+len(frag) > limit {
			return nil, fmt.Errorf("%w: line too long", errProtocol)
		}
		switch {
		case err == nil:
			if acc == nil {
				return trimCRLF(frag), nil
			}
			return trimCRLF(append(acc, frag...)), nil
		case errors.Is(err, bufio.ErrBufferFull):
			acc = append(acc, frag...)
		default:
			return nil, err
		}
	}
}

func trimCRLF(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line
}
