package mapping

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	derrors "refract/internal/core/errors"
)

// ParseSRG reads a line-oriented SRG mapping table. Records:
//
//	CL: <from> <to>
//	FD: <fromOwner/fromName> <toOwner/toName>
//	MD: <fromOwner/fromName> <fromDesc> <toOwner/toName> <toDesc>
//
// Blank lines and #-comments are ignored. Package records (PK:) carry
// no member identity and are skipped; any other unknown record kind is
// skipped with a debug log. A malformed record is an error only when it
// matches a known kind but cannot be decoded, since silently dropping
// it would make references resolve to the wrong environment.
func ParseSRG(r io.Reader) (*Table, error) {
	table := NewTable()
	scanner := bufio.NewScanner(r)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		kind, rest, ok := strings.Cut(line, ":")
		if !ok {
			slog.Debug("skipping unrecognized mapping line", "line", lineNo)
			continue
		}
		parts := strings.Fields(rest)

		switch kind {
		case "CL":
			if len(parts) != 2 {
				return nil, fmt.Errorf("line %d: CL record needs 2 fields, got %d", lineNo, len(parts))
			}
			table.AddType(parts[0], parts[1])

		case "FD":
			if len(parts) != 2 {
				return nil, fmt.Errorf("line %d: FD record needs 2 fields, got %d", lineNo, len(parts))
			}
			from, err := splitMemberPath(parts[0])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			to, err := splitMemberPath(parts[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			table.AddField(from, to)

		case "MD":
			if len(parts) != 4 {
				return nil, fmt.Errorf("line %d: MD record needs 4 fields, got %d", lineNo, len(parts))
			}
			from, err := splitMemberPath(parts[0])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			to, err := splitMemberPath(parts[2])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			from.Desc = parts[1]
			to.Desc = parts[3]
			table.AddMethod(from, to)

		case "PK":
			// Package mappings carry no member identity.

		default:
			slog.Debug("skipping unknown mapping record kind", "kind", kind, "line", lineNo)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

// LoadSRGFile parses the SRG table at path.
func LoadSRGFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, derrors.AddContext(
			derrors.Wrap(err, derrors.CodeNotFound, "mapping table not readable"),
			derrors.CtxPath, path)
	}
	defer f.Close()

	table, err := ParseSRG(f)
	if err != nil {
		return nil, derrors.AddContext(
			derrors.Wrap(err, derrors.CodeParseError, "mapping table malformed"),
			derrors.CtxPath, path)
	}
	return table, nil
}

// splitMemberPath splits "owner/path/name" at the final slash into the
// owning type and the member name.
func splitMemberPath(path string) (Member, error) {
	idx := strings.LastIndexByte(path, '/')
	if idx <= 0 || idx == len(path)-1 {
		return Member{}, fmt.Errorf("member path %q has no owner/name split", path)
	}
	return Member{Owner: path[:idx], Name: path[idx+1:]}, nil
}
