package pop3

import (
	"fmt"
	"strconv"
	"strings"

	"protoclient/internal/wire"
)

const (
	successMarker = "+OK"
	sentinel      = "."
)

// IsSuccess reports whether a reply line carries the +OK marker.
func IsSuccess(reply string) bool {
	return strings.HasPrefix(reply, successMarker)
}

type MailboxStatus struct {
	Count int
	Size  int
}

// ParseStatus extracts the message count and mailbox size from a STAT reply.
func ParseStatus(reply string) (MailboxStatus, error) {
	if !IsSuccess(reply) {
		return MailboxStatus{}, wire.ProtocolError("stat", reply, nil)
	}
	fields := strings.Fields(reply)
	if len(fields) < 3 {
		return MailboxStatus{}, wire.ProtocolError("stat", reply, fmt.Errorf("expected count and size"))
	}
	count, err := strconv.Atoi(fields[1])
	if err != nil {
		return MailboxStatus{}, wire.ProtocolError("stat", reply, fmt.Errorf("invalid message count %q", fields[1]))
	}
	size, err := strconv.Atoi(fields[2])
	if err != nil {
		return MailboxStatus{}, wire.ProtocolError("stat", reply, fmt.Errorf("invalid mailbox size %q", fields[2]))
	}
	return MailboxStatus{Count: count, Size: size}, nil
}

// MessageInfo is one "<number> <size>" scan line of a LIST reply.
type MessageInfo struct {
	Number int
	Size   int
}

func ParseListing(line string) (MessageInfo, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return MessageInfo{}, wire.ProtocolError("parse listing", line, fmt.Errorf("expected number and size"))
	}
	number, err := strconv.Atoi(fields[0])
	if err != nil {
		return MessageInfo{}, wire.ProtocolError("parse listing", line, err)
	}
	size, err := strconv.Atoi(fields[1])
	if err != nil {
		return MessageInfo{}, wire.ProtocolError("parse listing", line, err)
	}
	return MessageInfo{Number: number, Size: size}, nil
}

// unstuff undoes byte-stuffing of a multi-line reply line.
func unstuff(line string) string {
	if strings.HasPrefix(line, "..") {
		return line[1:]
	}
	return line
}

// readMultiline collects lines up to the lone "." sentinel, which is not
// included. transform, when non-nil, is applied to each collected line.
func readMultiline(r lineReader, op string, transform func(string) string) ([]string, error) {
	var lines []string
	for {
		line, err := r.ReadLine()
		if err != nil {
			return nil, wire.ProtocolError(op, "", fmt.Errorf("multi-line reply not terminated: %w", err))
		}
		if line == sentinel {
			return lines, nil
		}
		if transform != nil {
			line = transform(line)
		}
		lines = append(lines, line)
	}
}

type lineReader interface {
	ReadLine() (string, error)
}
