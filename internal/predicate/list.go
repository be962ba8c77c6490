package predicate

import "strings"

// List is an append-only accumulator of predicates. The top level is an
// implicit conjunction; BeginNot/EndNot bracket a negated sub-group. It is not
// safe for concurrent use.
type List struct {
	root    []Expr
	stack   [][]Expr
	orderBy string
}

func NewList() *List {
	return &List{}
}

// Add appends e to the innermost open group.
func (l *List) Add(e Expr) {
	if n := len(l.stack); n > 0 {
		l.stack[n-1] = append(l.stack[n-1], e)
		return
	}
	l.root = append(l.root, e)
}

// BeginNot opens a negated group.
func (l *List) BeginNot() {
	l.stack = append(l.stack, nil)
}

// EndNot closes the innermost negated group. Groups that received no
// predicate are dropped. Unbalanced calls are ignored.
func (l *List) EndNot() {
	n := len(l.stack)
	if n == 0 {
		return
	}
	children := l.stack[n-1]
	l.stack = l.stack[:n-1]
	if len(children) > 0 {
		l.Add(Not(children...))
	}
}

// SetOrderBy sets the order clause, e.g. "album.year ASC, name desc".
func (l *List) SetOrderBy(clause string) {
	l.orderBy = clause
}

// Exprs returns the top-level predicates.
func (l *List) Exprs() []Expr {
	return l.root
}

func (l *List) OrderBy() string {
	return l.orderBy
}

// Len returns the number of top-level predicates.
func (l *List) Len() int {
	return len(l.root)
}

// String renders the conjunction and order clause.
func (l *List) String() string {
	parts := make([]string, len(l.root))
	for i, e := range l.root {
		parts[i] = e.String()
	}
	s := strings.Join(parts, " AND ")
	if l.orderBy != "" {
		if s != "" {
			s += " "
		}
		s += "ORDER BY " + l.orderBy
	}
	return s
}

// Snapshot is the serializable form of a List.
type Snapshot struct {
	Predicates []Expr `json:"predicates"`
	OrderBy    string `json:"order_by,omitempty"`
}

func (l *List) Snapshot() Snapshot {
	preds := l.root
	if preds == nil {
		preds = []Expr{}
	}
	return Snapshot{Predicates: preds, OrderBy: l.orderBy}
}
