package docstore

// Find returns records selected by the filter, ordered by key.
// Returns an empty slice if nothing matches.
func (db *DB) Find(name string, f Filter) ([]Result, error) {
	flt, err := compileFilter(f)
	if err != nil {
		return nil, err
	}
	doc, err := db.Load(name)
	if err != nil {
		return nil, err
	}
	res := flt.match(doc)
	db.logf("docstore: Find('%s'): %d of %d records\n", Sanitize(name), len(res), len(doc.Data))
	return res, nil
}

// FindOne returns the first record selected by the filter.
// Returns false if nothing matches.
func (db *DB) FindOne(name string, f Filter) (Result, bool, error) {
	res, err := db.Find(name, f)
	if err != nil || len(res) == 0 {
		return Result{}, false, err
	}
	return res[0], true, nil
}

// Count returns the number of records selected by the filter
func (db *DB) Count(name string, f Filter) (int, error) {
	res, err := db.Find(name, f)
	return len(res), err
}
