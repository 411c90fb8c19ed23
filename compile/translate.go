package compile

import (
	"fmt"

	"github.com/oxhq/funsql/catalog"
	"github.com/oxhq/funsql/clause"
	"github.com/oxhq/funsql/query"
)

// assemblage is the partial result of translating one Box, per
// SPEC_FULL.md §9.4: a clause fragment, the ordered logical SELECT list it
// still owes (Cols), and the substitution table mapping every live ref to
// the alias it will carry once materialized (Repl).
type assemblage struct {
	Clause clause.Node
	Cols   []colEntry
	Repl   map[Scalar]string
}

type colEntry struct {
	Alias string
	Expr  clause.Node
}

// aliasAllocator hands out unique SQL aliases: the bare base name on first
// use, then a monotonically increasing integer suffix per base name
// (name_2, name_3, ...). Nothing is cached: every call returns a new alias,
// even when the same base name is requested for the same clause.
type aliasAllocator struct {
	counts map[string]int
}

func newAliasAllocator() *aliasAllocator {
	return &aliasAllocator{counts: make(map[string]int)}
}

func (a *aliasAllocator) alloc(base string) string {
	if base == "" {
		base = "_"
	}
	n := a.counts[base]
	a.counts[base] = n + 1
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s_%d", base, n+1)
}

// translator holds the state threaded through one Translate call.
type translator struct {
	tree    *Tree
	cat     *catalog.SQLCatalog
	alias   *aliasAllocator
	results map[BoxID]*assemblage
}

// Translate is the fourth compile pass: it folds the linked Box arena,
// bottom-up, into a clause.Node tree, per SPEC_FULL.md §9.4. It returns no
// variable list; the serializer collects Var names while rendering.
func Translate(t *Tree, cat *catalog.SQLCatalog) (clause.Node, error) {
	tr := &translator{tree: t, cat: cat, alias: newAliasAllocator(), results: make(map[BoxID]*assemblage)}
	a, err := tr.translateBox(t.Root)
	if err != nil {
		return nil, err
	}
	return complete(a), nil
}

func (tr *translator) get(id BoxID) (*assemblage, error) {
	if id == 0 {
		return &assemblage{Repl: make(map[Scalar]string)}, nil
	}
	if a, ok := tr.results[id]; ok {
		return a, nil
	}
	a, err := tr.translateBox(id)
	if err != nil {
		return nil, err
	}
	tr.results[id] = a
	return a, nil
}

func (tr *translator) translateBox(id BoxID) (*assemblage, error) {
	b := tr.tree.box(id)
	switch b.Kind {
	case FromTableBox:
		return tr.translateFromTable(b)
	case FromNothingBox:
		return &assemblage{Repl: make(map[Scalar]string)}, nil
	case FromValuesBox:
		return tr.translateFromValues(b)
	case FromReferenceBox:
		return tr.translateFromReference(b)
	case FromIterateBox:
		return tr.translateFromIterate(b)
	case WhereBox:
		return tr.translateWhere(b)
	case SelectBox:
		return tr.translateSelect(b)
	case DefineBox:
		return tr.translateDefine(b)
	case GroupBox:
		return tr.translateGroup(b)
	case PartitionBox:
		return tr.get(b.Over)
	case JoinBox:
		return tr.translateJoin(b)
	case AppendBox:
		return tr.translateAppend(b)
	case OrderBox:
		return tr.translateOrder(b)
	case LimitBox:
		return tr.translateLimit(b)
	case AsBox:
		return tr.translateAs(b)
	case BindBox:
		return tr.get(b.Over)
	case IterateBox:
		return tr.translateIterate(b)
	case KnotBox:
		return tr.get(b.Over)
	case WithBox:
		return tr.translateWith(b)
	case HighlightBox:
		return tr.get(b.Over)
	default:
		return nil, illFormed(tr.tree.pathOf(id), "translate: unhandled box kind")
	}
}

func (tr *translator) translateFromTable(b *Box) (*assemblage, error) {
	aliasName := tr.alias.alloc(b.TableName)
	repl := make(map[Scalar]string)
	cols := make([]colEntry, 0, len(b.Refs))
	seen := make(map[string]bool)
	for _, ref := range b.Refs {
		name, ok := refName(ref)
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		cols = append(cols, colEntry{Alias: name, Expr: &clause.ID{Qualifiers: []string{aliasName}, Name: name}})
	}
	from := &clause.From{Source: &clause.As{Arg: &clause.ID{Name: b.TableName}, Name: aliasName}}
	sel := &clause.Select{From: from}
	for _, ref := range b.Refs {
		name, _ := refName(ref)
		repl[ref] = name
	}
	return &assemblage{Clause: sel, Cols: cols, Repl: repl}, nil
}

func (tr *translator) translateFromValues(b *Box) (*assemblage, error) {
	aliasName := tr.alias.alloc("_values")
	repl := make(map[Scalar]string)
	cols := make([]colEntry, 0, len(b.ValuesColumns))
	for _, name := range b.ValuesColumns {
		cols = append(cols, colEntry{Alias: name, Expr: &clause.ID{Qualifiers: []string{aliasName}, Name: name}})
	}
	for _, ref := range b.Refs {
		name, _ := refName(ref)
		repl[ref] = name
	}
	rows := make([][]clause.Node, len(b.ValuesRows))
	for i, row := range b.ValuesRows {
		r := make([]clause.Node, len(row))
		for j, cell := range row {
			r[j] = tr.translateScalar(cell, nil)
		}
		rows[i] = r
	}
	values := &clause.Values{Rows: rows, Columns: b.ValuesColumns, Alias: aliasName}
	sel := &clause.Select{From: &clause.From{Source: values}}
	return &assemblage{Clause: sel, Cols: cols, Repl: repl}, nil
}

func (tr *translator) translateFromReference(b *Box) (*assemblage, error) {
	over, err := tr.get(b.Over)
	if err != nil {
		return nil, err
	}
	from := &clause.From{Source: &clause.ID{Name: b.RefName}}
	repl := make(map[Scalar]string, len(over.Repl))
	for k, v := range over.Repl {
		repl[k] = v
	}
	return &assemblage{Clause: &clause.Select{From: from}, Cols: over.Cols, Repl: repl}, nil
}

func (tr *translator) translateFromIterate(b *Box) (*assemblage, error) {
	return tr.get(b.Over)
}

func (tr *translator) translateWhere(b *Box) (*assemblage, error) {
	over, err := tr.get(b.Over)
	if err != nil {
		return nil, err
	}
	cond := tr.translateScalar(b.Condition, over.Repl)
	if isLiteralTrue(b.Condition) {
		return over, nil
	}
	sel, ok := asSelect(over.Clause)
	if ok && sel.Group == nil {
		sel.Where = mergeWhere(sel.Where, cond)
		return &assemblage{Clause: sel, Cols: over.Cols, Repl: over.Repl}, nil
	}
	if ok && sel.Group != nil {
		sel.Having = mergeHaving(sel.Having, cond)
		return &assemblage{Clause: sel, Cols: over.Cols, Repl: over.Repl}, nil
	}
	wrapped := tr.wrapAsSubquery(over)
	wrapped.Where = &clause.Where{Condition: cond}
	return &assemblage{Clause: wrapped, Cols: over.Cols, Repl: over.Repl}, nil
}

func isLiteralTrue(s Scalar) bool {
	lit, ok := s.(*Lit)
	if !ok {
		return false
	}
	b, ok := lit.Value.(bool)
	return ok && b
}

func mergeWhere(w *clause.Where, cond clause.Node) *clause.Where {
	if w == nil || w.Condition == nil {
		return &clause.Where{Condition: cond}
	}
	return &clause.Where{Condition: &clause.Fun{Name: "and", Args: []clause.Node{w.Condition, cond}}}
}

func mergeHaving(h *clause.Having, cond clause.Node) *clause.Having {
	if h == nil || h.Condition == nil {
		return &clause.Having{Condition: cond}
	}
	return &clause.Having{Condition: &clause.Fun{Name: "and", Args: []clause.Node{h.Condition, cond}}}
}

func asSelect(n clause.Node) (*clause.Select, bool) {
	sel, ok := n.(*clause.Select)
	return sel, ok
}

func (tr *translator) wrapAsSubquery(a *assemblage) *clause.Select {
	sub := complete(a)
	aliasName := tr.alias.alloc("_t")
	return &clause.Select{From: &clause.From{Source: &clause.As{Arg: sub, Name: aliasName}}}
}

func (tr *translator) translateSelect(b *Box) (*assemblage, error) {
	over, err := tr.get(b.Over)
	if err != nil {
		return nil, err
	}
	innerSel := tr.wrapAsSubquery(over)
	aliasName := aliasOfSubquerySource(innerSel)
	cols := make([]colEntry, len(b.Args))
	repl := make(map[Scalar]string, len(b.Args))
	for i, arg := range b.Args {
		name := b.LabelMap[i]
		if name == "" {
			name = fmt.Sprintf("col_%d", i+1)
		}
		cols[i] = colEntry{Alias: name, Expr: tr.translateScalarQualified(arg, over.Repl, aliasName)}
	}
	for i, arg := range b.Args {
		repl[arg] = cols[i].Alias
	}
	return &assemblage{Clause: innerSel, Cols: cols, Repl: repl}, nil
}

func aliasOfSubquerySource(sel *clause.Select) string {
	if sel.From == nil {
		return ""
	}
	if as, ok := sel.From.Source.(*clause.As); ok {
		return as.Name
	}
	return ""
}

func (tr *translator) translateDefine(b *Box) (*assemblage, error) {
	over, err := tr.get(b.Over)
	if err != nil {
		return nil, err
	}
	sel, ok := asSelect(over.Clause)
	var base *clause.Select
	if ok && len(sel.Columns) == 0 {
		base = sel
	} else {
		base = tr.wrapAsSubquery(over)
	}
	cols := append([]colEntry(nil), over.Cols...)
	repl := make(map[Scalar]string, len(over.Repl)+len(b.Args))
	for k, v := range over.Repl {
		repl[k] = v
	}
	for i, arg := range b.Args {
		name := b.LabelMap[i]
		expr := tr.translateScalar(arg, over.Repl)
		cols = append(cols, colEntry{Alias: name, Expr: expr})
		repl[arg] = name
	}
	return &assemblage{Clause: base, Cols: cols, Repl: repl}, nil
}

func (tr *translator) translateGroup(b *Box) (*assemblage, error) {
	over, err := tr.get(b.Over)
	if err != nil {
		return nil, err
	}
	byClauses := make([]clause.Node, len(b.By))
	cols := make([]colEntry, 0, len(b.By)+len(b.Refs))
	repl := make(map[Scalar]string)
	for i, by := range b.By {
		name := b.LabelMap[i]
		expr := tr.translateScalar(by, over.Repl)
		byClauses[i] = expr
		cols = append(cols, colEntry{Alias: name, Expr: expr})
		repl[by] = name
	}
	hasAgg := false
	for _, ref := range b.Refs {
		agg, ok := ref.(*Agg)
		if !ok {
			continue
		}
		hasAgg = true
		args := make([]clause.Node, len(agg.Args))
		for i, a := range agg.Args {
			args[i] = tr.translateScalar(a, over.Repl)
		}
		var filter clause.Node
		if agg.Filter != nil {
			filter = tr.translateScalar(agg.Filter, over.Repl)
		}
		aggName := tr.alias.alloc(agg.Name)
		cClause := &clause.Agg{Name: agg.Name, Args: args, Distinct: agg.Distinct, Filter: filter}
		cols = append(cols, colEntry{Alias: aggName, Expr: cClause})
		repl[ref] = aggName
	}
	sel, ok := asSelect(over.Clause)
	var base *clause.Select
	if ok && len(sel.Columns) == 0 {
		base = sel
	} else {
		base = tr.wrapAsSubquery(over)
	}
	if hasAgg {
		base.Group = &clause.Group{By: byClauses, Sets: b.Sets}
	} else {
		base.Distinct = true
	}
	return &assemblage{Clause: base, Cols: cols, Repl: repl}, nil
}

func (tr *translator) translateJoin(b *Box) (*assemblage, error) {
	left, err := tr.get(b.Over)
	if err != nil {
		return nil, err
	}
	right, err := tr.get(b.Joinee)
	if err != nil {
		return nil, err
	}
	leftSel, ok := asSelect(left.Clause)
	if !ok {
		leftSel = tr.wrapAsSubquery(left)
	}
	rightSource, rightAlias := tr.inlineOrAlias(right)

	merged := make(map[Scalar]string, len(left.Repl)+len(right.Repl))
	for k, v := range left.Repl {
		merged[k] = v
	}
	for k, v := range right.Repl {
		merged[k] = v
	}

	var on clause.Node
	if b.On != nil {
		on = tr.translateScalar(b.On, merged)
	}
	kind := clause.InnerJoin
	switch b.JoinType {
	case query.LeftJoin:
		kind = clause.LeftJoin
	case query.RightJoin:
		kind = clause.RightJoin
	case query.FullJoin:
		kind = clause.FullJoin
	case query.CrossJoin:
		kind = clause.CrossJoin
	}
	_ = rightAlias
	leftSel.Joins = append(leftSel.Joins, &clause.Join{Kind: kind, Right: rightSource, On: on, Lateral: b.Lateral})

	cols := append([]colEntry(nil), left.Cols...)
	cols = append(cols, right.Cols...)
	return &assemblage{Clause: leftSel, Cols: cols, Repl: merged}, nil
}

// inlineOrAlias renders a's clause as a bare aliased table/subquery
// suitable for a JOIN right-hand side, per SPEC_FULL.md §9.4.
func (tr *translator) inlineOrAlias(a *assemblage) (clause.Node, string) {
	if sel, ok := asSelect(a.Clause); ok && sel.From != nil && len(sel.Joins) == 0 &&
		sel.Where == nil && sel.Group == nil && sel.Having == nil && sel.Order == nil && sel.Limit == nil {
		if as, ok := sel.From.Source.(*clause.As); ok {
			return as, as.Name
		}
	}
	aliasName := tr.alias.alloc("_t")
	return &clause.As{Arg: complete(a), Name: aliasName}, aliasName
}

func (tr *translator) translateAppend(b *Box) (*assemblage, error) {
	over, err := tr.get(b.Over)
	if err != nil {
		return nil, err
	}
	if len(b.Branches) == 0 {
		return over, nil
	}
	branches := []*assemblage{over}
	for _, brID := range b.Branches {
		br, err := tr.get(brID)
		if err != nil {
			return nil, err
		}
		branches = append(branches, br)
	}
	if len(branches) == 1 {
		return branches[0], nil
	}
	parts := make([]clause.Node, len(branches))
	for i, br := range branches {
		parts[i] = complete(br)
	}
	repl := branches[0].Repl
	return &assemblage{Clause: &clause.Union{Branches: parts}, Cols: branches[0].Cols, Repl: repl}, nil
}

func (tr *translator) translateOrder(b *Box) (*assemblage, error) {
	over, err := tr.get(b.Over)
	if err != nil {
		return nil, err
	}
	sorts := make([]*clause.Sort, len(b.Sort))
	for i, s := range b.Sort {
		sorts[i] = tr.translateSort(s, over.Repl)
	}
	sel, ok := asSelect(over.Clause)
	if !ok {
		sel = tr.wrapAsSubquery(over)
	}
	sel.Order = &clause.Order{By: sorts}
	return &assemblage{Clause: sel, Cols: over.Cols, Repl: over.Repl}, nil
}

func (tr *translator) translateSort(s Scalar, repl map[Scalar]string) *clause.Sort {
	sort, ok := s.(*Sort)
	if !ok {
		return &clause.Sort{Arg: tr.translateScalar(s, repl)}
	}
	dir := clause.SortAsc
	if sort.Dir == query.Desc {
		dir = clause.SortDesc
	}
	var nulls clause.NullsOrder
	switch sort.Nulls {
	case query.NullsFirst:
		nulls = clause.NullsFirst
	case query.NullsLast:
		nulls = clause.NullsLast
	}
	return &clause.Sort{Arg: tr.translateScalar(sort.Arg, repl), Dir: dir, Nulls: nulls}
}

func (tr *translator) translateLimit(b *Box) (*assemblage, error) {
	over, err := tr.get(b.Over)
	if err != nil {
		return nil, err
	}
	sel, ok := asSelect(over.Clause)
	if !ok {
		sel = tr.wrapAsSubquery(over)
	}
	lim := &clause.Limit{}
	if b.Offset != nil {
		lim.Offset = &clause.Lit{Value: *b.Offset}
	}
	if b.Count != nil {
		lim.Count = &clause.Lit{Value: *b.Count}
	}
	sel.Limit = lim
	return &assemblage{Clause: sel, Cols: over.Cols, Repl: over.Repl}, nil
}

func (tr *translator) translateAs(b *Box) (*assemblage, error) {
	over, err := tr.get(b.Over)
	if err != nil {
		return nil, err
	}
	return over, nil
}

func (tr *translator) translateIterate(b *Box) (*assemblage, error) {
	base, err := tr.get(b.Over)
	if err != nil {
		return nil, err
	}
	cteName := tr.alias.alloc("recur")
	baseSel := complete(base)
	iter, err := tr.get(b.Iterator)
	if err != nil {
		return nil, err
	}
	iterSel := complete(iter)
	union := &clause.Union{Branches: []clause.Node{baseSel, iterSel}}
	main := &clause.Select{From: &clause.From{Source: &clause.ID{Name: cteName}}}
	with := &clause.With{Recursive: true, Names: []string{cteName}, Bodies: []clause.Node{union}, Main: main}
	return &assemblage{Clause: with, Cols: base.Cols, Repl: base.Repl}, nil
}

func (tr *translator) translateWith(b *Box) (*assemblage, error) {
	names := make([]string, len(b.Branches))
	bodies := make([]clause.Node, len(b.Branches))
	for i, brID := range b.Branches {
		name := b.LabelMap[i]
		br, err := tr.get(brID)
		if err != nil {
			return nil, err
		}
		names[i] = name
		bodies[i] = complete(br)
	}
	over, err := tr.get(b.Over)
	if err != nil {
		return nil, err
	}
	main := complete(over)
	with := &clause.With{Names: names, Bodies: bodies, Main: main}
	return &assemblage{Clause: with, Cols: over.Cols, Repl: over.Repl}, nil
}

// translateScalar converts an annotated Scalar to a clause.Node. Leaf refs
// (Get/NameBound/HandleBound) are resolved through repl, the substitution
// table built while assembling the enclosing Box.
func (tr *translator) translateScalar(s Scalar, repl map[Scalar]string) clause.Node {
	return tr.translateScalarQualified(s, repl, "")
}

func (tr *translator) translateScalarQualified(s Scalar, repl map[Scalar]string, qualifier string) clause.Node {
	if s == nil {
		return nil
	}
	switch n := s.(type) {
	case *Get, *NameBound, *HandleBound:
		name, ok := repl[s]
		if !ok {
			name, _ = refName(s)
		}
		if qualifier != "" {
			return &clause.ID{Qualifiers: []string{qualifier}, Name: name}
		}
		return &clause.ID{Name: name}
	case *Fun:
		args := make([]clause.Node, len(n.Args))
		for i, a := range n.Args {
			args[i] = tr.translateScalarQualified(a, repl, qualifier)
		}
		return &clause.Fun{Name: n.Name, Args: args}
	case *Agg:
		args := make([]clause.Node, len(n.Args))
		for i, a := range n.Args {
			args[i] = tr.translateScalarQualified(a, repl, qualifier)
		}
		var filter clause.Node
		if n.Filter != nil {
			filter = tr.translateScalarQualified(n.Filter, repl, qualifier)
		}
		var over *clause.PartitionOver
		if n.Over != 0 {
			over = tr.translatePartitionOver(n.Over, repl)
		}
		return &clause.Agg{Name: n.Name, Args: args, Distinct: n.Distinct, Filter: filter, Over: over}
	case *Lit:
		return &clause.Lit{Value: n.Value}
	case *Var:
		return &clause.Var{Name: n.Name}
	case *Sort:
		return tr.translateSort(n, repl)
	case *ScalarAs:
		return tr.translateScalarQualified(n.Arg, repl, qualifier)
	default:
		return &clause.Lit{Value: nil}
	}
}

func (tr *translator) translatePartitionOver(id BoxID, repl map[Scalar]string) *clause.PartitionOver {
	b := tr.tree.box(id)
	if b == nil {
		return &clause.PartitionOver{}
	}
	by := make([]clause.Node, len(b.By))
	for i, s := range b.By {
		by[i] = tr.translateScalar(s, repl)
	}
	order := make([]*clause.Sort, len(b.OrderBy))
	for i, s := range b.OrderBy {
		order[i] = tr.translateSort(s, repl)
	}
	return &clause.PartitionOver{By: by, OrderBy: order, Frame: renderFrame(b.Frame)}
}

func renderFrame(f *query.Frame) string {
	if f == nil {
		return ""
	}
	mode := "ROWS"
	if f.Mode == query.RangeFrame {
		mode = "RANGE"
	}
	if f.End == nil {
		return mode + " " + boundSQL(f.Start)
	}
	return mode + " BETWEEN " + boundSQL(f.Start) + " AND " + boundSQL(*f.End)
}

func boundSQL(b query.Bound) string {
	switch b.Kind {
	case query.UnboundedPreceding:
		return "UNBOUNDED PRECEDING"
	case query.Preceding:
		return literalOffset(b.Offset) + " PRECEDING"
	case query.CurrentRow:
		return "CURRENT ROW"
	case query.Following:
		return literalOffset(b.Offset) + " FOLLOWING"
	case query.UnboundedFollowing:
		return "UNBOUNDED FOLLOWING"
	default:
		return "CURRENT ROW"
	}
}

func literalOffset(s query.Scalar) string {
	lit, ok := s.(*query.Lit)
	if !ok {
		return "?"
	}
	return fmt.Sprintf("%v", lit.Value)
}

// complete turns an assemblage into a full SELECT, materializing Cols as
// the SELECT list unless the clause is already a complete SELECT/UNION,
// per SPEC_FULL.md §9.4.
func complete(a *assemblage) clause.Node {
	if a.Clause == nil {
		return &clause.Select{Columns: completeCols(a.Cols)}
	}
	switch n := a.Clause.(type) {
	case *clause.Select:
		if len(n.Columns) == 0 {
			n.Columns = completeCols(a.Cols)
		}
		return n
	case *clause.Union, *clause.With:
		return n
	default:
		return n
	}
}

func completeCols(cols []colEntry) []clause.Node {
	out := make([]clause.Node, len(cols))
	for i, c := range cols {
		if id, ok := c.Expr.(*clause.ID); ok && len(id.Qualifiers) == 0 && id.Name == c.Alias {
			out[i] = id
			continue
		}
		out[i] = &clause.As{Arg: c.Expr, Name: c.Alias}
	}
	return out
}
