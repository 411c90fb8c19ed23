package compile

import "github.com/oxhq/funsql/query"

// Annotate performs the first compile pass: it walks the user's query tree
// bottom-up (children before parents, so Box ids are allocated in the
// order Resolve's later pass expects), wrapping every tabular position in
// a Box and rebinding scalar Get chains into NameBound/HandleBound
// decorations around a base Get or Agg.
func Annotate(root query.Node) (*Tree, error) {
	t := newTree()
	a := &annotator{tree: t}
	top, ok := root.(query.Tabular)
	if !ok {
		return nil, illFormed(nil, "root node must be tabular")
	}
	id, err := a.annotateTabular(top, nil)
	if err != nil {
		return nil, err
	}
	t.Root = id
	return t, nil
}

type annotator struct {
	tree      *Tree
	knotStack []BoxID
}

func (a *annotator) annotateTabular(n query.Tabular, path Path) (BoxID, error) {
	if n == nil {
		return 0, nil
	}
	switch node := n.(type) {
	case *query.From:
		return a.annotateFrom(node, path)
	case *query.Where:
		overID, err := a.annotateTabular(node.Over, append(path, 0))
		if err != nil {
			return 0, err
		}
		cond, err := a.annotateScalarAt(overID, node.Condition, append(path, 1))
		if err != nil {
			return 0, err
		}
		b := a.tree.newBox(WhereBox, path)
		b.Over = overID
		b.Condition = cond
		return b.ID, nil

	case *query.Select:
		overID, err := a.annotateTabular(node.Over, append(path, 0))
		if err != nil {
			return 0, err
		}
		args, err := a.annotateScalarList(overID, node.Args, path)
		if err != nil {
			return 0, err
		}
		if err := checkDupLabels(path, node.LabelMap); err != nil {
			return 0, err
		}
		b := a.tree.newBox(SelectBox, path)
		b.Over = overID
		b.Args = args
		b.LabelMap = node.LabelMap
		return b.ID, nil

	case *query.Define:
		overID, err := a.annotateTabular(node.Over, append(path, 0))
		if err != nil {
			return 0, err
		}
		args, err := a.annotateScalarList(overID, node.Args, path)
		if err != nil {
			return 0, err
		}
		if err := checkDupLabels(path, node.LabelMap); err != nil {
			return 0, err
		}
		b := a.tree.newBox(DefineBox, path)
		b.Over = overID
		b.Args = args
		b.LabelMap = node.LabelMap
		return b.ID, nil

	case *query.Group:
		overID, err := a.annotateTabular(node.Over, append(path, 0))
		if err != nil {
			return 0, err
		}
		by, err := a.annotateScalarList(overID, node.By, path)
		if err != nil {
			return 0, err
		}
		if err := checkDupLabels(path, node.LabelMap); err != nil {
			return 0, err
		}
		b := a.tree.newBox(GroupBox, path)
		b.Over = overID
		b.By = by
		b.Sets = node.Sets
		b.Name = node.Name
		b.LabelMap = node.LabelMap
		return b.ID, nil

	case *query.Partition:
		overID, err := a.annotateTabular(node.Over, append(path, 0))
		if err != nil {
			return 0, err
		}
		by, err := a.annotateScalarList(overID, node.By, path)
		if err != nil {
			return 0, err
		}
		ob, err := a.annotateScalarList(overID, node.OrderBy, path)
		if err != nil {
			return 0, err
		}
		b := a.tree.newBox(PartitionBox, path)
		b.Over = overID
		b.By = by
		b.OrderBy = ob
		b.Name = node.Name
		b.Frame = node.Frame
		return b.ID, nil

	case *query.Join:
		overID, err := a.annotateTabular(node.Over, append(path, 0))
		if err != nil {
			return 0, err
		}
		joineeID, err := a.annotateTabular(node.Joinee, append(path, 1))
		if err != nil {
			return 0, err
		}
		// the ON condition can see both sides; annotate it against the
		// joinee box (Link later routes refs left/right by row type).
		on, err := a.annotateScalarAt(joineeID, node.On, append(path, 2))
		if err != nil {
			return 0, err
		}
		b := a.tree.newBox(JoinBox, path)
		b.Over = overID
		b.Joinee = joineeID
		b.On = on
		b.JoinType = node.Type
		b.Optional = node.Optional
		b.Lateral = node.Lateral
		return b.ID, nil

	case *query.Append:
		overID, err := a.annotateTabular(node.Over, append(path, 0))
		if err != nil {
			return 0, err
		}
		branches := make([]BoxID, len(node.Args))
		for i, arg := range node.Args {
			bid, err := a.annotateTabular(arg, append(path, i+1))
			if err != nil {
				return 0, err
			}
			branches[i] = bid
		}
		b := a.tree.newBox(AppendBox, path)
		b.Over = overID
		b.Branches = branches
		return b.ID, nil

	case *query.Order:
		overID, err := a.annotateTabular(node.Over, append(path, 0))
		if err != nil {
			return 0, err
		}
		by, err := a.annotateScalarList(overID, node.By, path)
		if err != nil {
			return 0, err
		}
		b := a.tree.newBox(OrderBox, path)
		b.Over = overID
		b.Sort = by
		return b.ID, nil

	case *query.Limit:
		overID, err := a.annotateTabular(node.Over, append(path, 0))
		if err != nil {
			return 0, err
		}
		b := a.tree.newBox(LimitBox, path)
		b.Over = overID
		b.Offset = node.Offset
		b.Count = node.Count
		return b.ID, nil

	case *query.As:
		overID, err := a.annotateTabular(node.Over, append(path, 0))
		if err != nil {
			return 0, err
		}
		b := a.tree.newBox(AsBox, path)
		b.Over = overID
		b.Alias = node.Name
		return b.ID, nil

	case *query.Bind:
		overID, err := a.annotateTabular(node.Over, append(path, 0))
		if err != nil {
			return 0, err
		}
		args, err := a.annotateScalarList(0, node.Args, path)
		if err != nil {
			return 0, err
		}
		if err := checkDupLabels(path, node.LabelMap); err != nil {
			return 0, err
		}
		b := a.tree.newBox(BindBox, path)
		b.Over = overID
		b.Args = args
		b.LabelMap = node.LabelMap
		b.Owned = false
		return b.ID, nil

	case *query.Iterate:
		overID, err := a.annotateTabular(node.Over, append(path, 0))
		if err != nil {
			return 0, err
		}
		knot := a.tree.newBox(KnotBox, path)
		knot.Over = overID
		a.knotStack = append(a.knotStack, knot.ID)
		iterID, err := a.annotateTabular(node.Iterator, append(path, 1))
		a.knotStack = a.knotStack[:len(a.knotStack)-1]
		if err != nil {
			return 0, err
		}
		b := a.tree.newBox(IterateBox, path)
		b.Over = overID
		b.Knot = knot.ID
		b.Iterator = iterID
		return b.ID, nil

	case *query.With:
		branches := make([]BoxID, len(node.Args))
		for i, arg := range node.Args {
			bid, err := a.annotateTabular(arg, append(path, i+1))
			if err != nil {
				return 0, err
			}
			branches[i] = bid
			if name, ok := node.LabelMap[i]; ok {
				a.tree.cteScope[name] = bid
			}
		}
		overID, err := a.annotateTabular(node.Over, append(path, 0))
		if err != nil {
			return 0, err
		}
		if err := checkDupLabels(path, node.LabelMap); err != nil {
			return 0, err
		}
		b := a.tree.newBox(WithBox, path)
		b.Over = overID
		b.Branches = branches
		b.LabelMap = node.LabelMap
		b.Materialized = node.Materialized
		return b.ID, nil

	case *query.Highlight:
		overID, err := a.annotateTabular(node.Over, append(path, 0))
		if err != nil {
			return 0, err
		}
		b := a.tree.newBox(HighlightBox, path)
		b.Over = overID
		b.Color = node.Color
		return b.ID, nil

	default:
		return 0, illFormed(path, "unrecognized tabular node")
	}
}

func (a *annotator) annotateFrom(node *query.From, path Path) (BoxID, error) {
	switch src := node.Source.(type) {
	case query.FromTable:
		b := a.tree.newBox(FromTableBox, path)
		b.TableName = src.TableName
		return b.ID, nil
	case query.FromSymbol:
		if boxID, ok := a.tree.cteScope[src.Name]; ok {
			b := a.tree.newBox(FromReferenceBox, path)
			b.RefName = src.Name
			b.Over = boxID
			return b.ID, nil
		}
		return 0, refError(UndefinedTableReference, path, "undefined reference "+src.Name)
	case query.FromIterateSelf:
		if len(a.knotStack) == 0 {
			return 0, illFormed(path, "iterate-self reference outside an Iterate")
		}
		b := a.tree.newBox(FromIterateBox, path)
		b.Over = a.knotStack[len(a.knotStack)-1]
		return b.ID, nil
	case query.FromValues:
		b := a.tree.newBox(FromValuesBox, path)
		rows := make([][]Scalar, len(src.Rows))
		for i, row := range src.Rows {
			r, err := a.annotateScalarList(0, row, path)
			if err != nil {
				return 0, err
			}
			rows[i] = r
		}
		b.ValuesRows = rows
		b.ValuesColumns = src.Columns
		return b.ID, nil
	case query.FromNothing:
		b := a.tree.newBox(FromNothingBox, path)
		return b.ID, nil
	default:
		return 0, illFormed(path, "unrecognized From source")
	}
}

func (a *annotator) annotateScalarList(overID BoxID, args []query.Scalar, path Path) ([]Scalar, error) {
	out := make([]Scalar, len(args))
	for i, arg := range args {
		s, err := a.annotateScalarAt(overID, arg, append(path, i))
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// annotateScalarAt annotates a single scalar expression evaluated in the
// context of the tabular box overID (0 if there is no ambient box, e.g.
// a Bind argument evaluated outside any row context).
func (a *annotator) annotateScalarAt(overID BoxID, n query.Scalar, path Path) (Scalar, error) {
	if n == nil {
		return nil, nil
	}
	switch node := n.(type) {
	case *query.Get:
		return a.annotateGetChain(node, path)
	case *query.Fun:
		args, err := a.annotateScalarList(overID, node.Args, path)
		if err != nil {
			return nil, err
		}
		return &Fun{Name: node.Name, Args: args}, nil
	case *query.Agg:
		args, err := a.annotateScalarList(overID, node.Args, path)
		if err != nil {
			return nil, err
		}
		filter, err := a.annotateScalarAt(overID, node.Filter, path)
		if err != nil {
			return nil, err
		}
		var winBox BoxID
		if node.Over != nil {
			id, err := a.annotateTabular(node.Over, path)
			if err != nil {
				return nil, err
			}
			winBox = id
		}
		return &Agg{Name: node.Name, Args: args, Distinct: node.Distinct, Filter: filter, Over: winBox}, nil
	case *query.Lit:
		return &Lit{Value: node.Value}, nil
	case *query.Var:
		return &Var{Name: node.Name}, nil
	case *query.Sort:
		arg, err := a.annotateScalarAt(overID, node.Arg, path)
		if err != nil {
			return nil, err
		}
		return &Sort{Arg: arg, Dir: node.Dir, Nulls: node.Nulls}, nil
	case *query.ScalarAs:
		arg, err := a.annotateScalarAt(overID, node.Arg, path)
		if err != nil {
			return nil, err
		}
		return &ScalarAs{Arg: arg, Name: node.Name}, nil
	default:
		// A tabular node in scalar position is a scalar subquery: it is
		// itself re-annotated and boxed, then referenced through a
		// handle (scalar-subquery hoisting).
		if tab, ok := n.(query.Tabular); ok {
			id, err := a.annotateTabular(tab, path)
			if err != nil {
				return nil, err
			}
			h := a.tree.allocHandle(id)
			return &HandleBound{Handle: h, Inner: &Get{Name: ""}}, nil
		}
		return nil, illFormed(path, "unrecognized scalar node")
	}
}

// annotateGetChain implements the rebinding rule in SPEC_FULL.md §9.1. A
// Get's Over chain reads outermost-field-first, innermost-qualifier-last
// (p.id is Get{Name:"id", Over:Get{Name:"p"}}): names[0] is the field
// actually being fetched, names[1:] are the qualifiers narrowing the row it
// is fetched from, outermost qualifier last. The annotated form nests the
// other way — qualifiers narrow from the outside in, down to a base Get —
// so names[0] becomes the base and names[1:] wrap it from the inside out.
func (a *annotator) annotateGetChain(n *query.Get, path Path) (Scalar, error) {
	var names []string
	var cur query.Node = n
	for {
		g, ok := cur.(*query.Get)
		if !ok {
			break
		}
		names = append(names, g.Name)
		cur = g.Over
	}
	base := Scalar(&Get{Name: names[0]})
	result := base
	for i := 1; i < len(names); i++ {
		result = &NameBound{Name: names[i], Inner: result}
	}
	if cur != nil {
		tab, ok := cur.(query.Tabular)
		if !ok {
			return nil, illFormed(path, "Get chain terminates at a non-tabular node")
		}
		id, err := a.annotateTabular(tab, path)
		if err != nil {
			return nil, err
		}
		h := a.tree.allocHandle(id)
		result = &HandleBound{Handle: h, Inner: result}
	}
	return result, nil
}

func checkDupLabels(path Path, labels map[int]string) error {
	seen := make(map[string]bool, len(labels))
	for _, name := range labels {
		if seen[name] {
			return duplicateLabel(path, name)
		}
		seen[name] = true
	}
	return nil
}
