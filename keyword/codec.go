/*
 * codec.go, part of gopenelopetools.
 *
 *
 * Copyright 2024 The gopenelopetools Authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 *
 */

package keyword

import (
	"fmt"
	"strconv"
	"strings"
)

// Format describes the column layout of one family of keyword files.
type Format struct {
	LabelWidth    int //the label is left-justified to this many columns
	LineWidth     int //no line may be longer than this
	CommentColumn int //bracketed comments start here, when there is room
}

var (
	// InputFormat is the layout of the simulation programs' input files.
	InputFormat = Format{LabelWidth: 6, LineWidth: 80, CommentColumn: 25}

	// GeometryFormat is the layout used for keyword lines in geometry files.
	GeometryFormat = Format{LabelWidth: 8, LineWidth: 64, CommentColumn: 25}
)

//Lines starting with at least this many blanks are comments or continuations.
const indentedComment = "       "

// FormatValue renders a single value. Floats use the shortest representation
// that reads back to the same number.
func FormatValue(v any) string {
	switch t := v.(type) {
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32)
	case string:
		return t
	default:
		return fmt.Sprint(v)
	}
}

// Encode builds one line: the label, the values separated by single spaces and,
// if it fits, the comment in brackets. A comment that does not fit is dropped.
// A line that is too long even without the comment is an error.
func (F Format) Encode(label string, values []string, comment string) (string, error) {
	label = strings.ToUpper(label)
	if len(label) > F.LabelWidth {
		return "", newError(ErrLineTooLong, label, "label longer than %d columns", F.LabelWidth)
	}
	line := label
	if len(values) > 0 {
		line = fmt.Sprintf("%-*s %s", F.LabelWidth, label, strings.Join(values, " "))
	}
	if len(line) > F.LineWidth {
		return "", newError(ErrLineTooLong, label, "%d columns, maximum is %d", len(line), F.LineWidth)
	}
	if comment == "" {
		return line, nil
	}
	prefix := fmt.Sprintf("%-*s", F.LabelWidth, line) + " "
	if len(prefix) < F.CommentColumn {
		prefix = fmt.Sprintf("%-*s", F.CommentColumn, prefix)
	}
	commented := prefix + "[" + comment + "]"
	if len(commented) > F.LineWidth {
		return line, nil
	}
	return commented, nil
}

// Decode splits a line into its label, its value tokens and its bracketed
// comment. Blank lines and lines indented by 7 or more columns are not keyword
// lines: ok is false and the whole line is returned as the comment.
func (F Format) Decode(line string) (label string, values []string, comment string, ok bool) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" || strings.HasPrefix(line, indentedComment) {
		return "", nil, line, false
	}
	body := line
	if i := strings.IndexByte(body, '['); i >= 0 {
		comment = body[i+1:]
		if j := strings.LastIndexByte(comment, ']'); j >= 0 {
			comment = comment[:j]
		}
		body = body[:i]
	}
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return "", nil, line, false
	}
	return strings.ToUpper(fields[0]), fields[1:], comment, true
}
