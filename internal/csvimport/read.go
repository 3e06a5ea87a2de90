package csvimport

// ReadText tokenizes delimited text. A zero delim is detected from the
// header line.
func ReadText(text string, delim rune) ([]Record, error) {
	if delim == 0 {
		delim = DetectDelimiter(text)
	}
	records := Tokenize(text, delim)
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}
	return records, nil
}

// split separates the header from the data rows.
func split(records []Record) (Record, []Record, error) {
	if len(records) == 0 {
		return Record{}, nil, ErrEmptyFile
	}
	return records[0], records[1:], nil
}
