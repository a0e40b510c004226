package scanner

// Line reports the Stream's current line: the line the most recently
// consumed token started on (1 before any token is consumed). Whitespace
// ahead of the next token is not looked at, so a line break there is not
// counted. Used by the parser to stamp a Block with its line before any
// of its expressions have been parsed.
func (ts *Stream) Line() int { return ts.line }
