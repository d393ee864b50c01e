package core

// DBOrdering is one requested sort on a query operation. Field carries the
// API-facing sort name; each repository maps it onto a real column and drops
// names it does not recognize, so raw query-string input never reaches SQL.
type DBOrdering struct {
	Field     string
	Ascending bool
}

// String renders "<field> ASC|DESC". Only call with a mapped column name.
func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}
