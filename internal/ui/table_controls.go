package ui

type tableController interface {
	NextColumn()
	PrevColumn()
	SortActiveColumn(desc bool)
	HideActiveColumn() bool
	ShowAllColumns()
	TableMeta() string
}
