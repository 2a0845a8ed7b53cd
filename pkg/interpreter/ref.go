package interpreter

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapdbml/pkg/ast"
	"github.com/leapstack-labs/leapdbml/pkg/core"
	"github.com/leapstack-labs/leapdbml/pkg/model"
	"github.com/leapstack-labs/leapdbml/pkg/symbol"
	"github.com/leapstack-labs/leapdbml/pkg/validator"
)

// Relations per operator, first endpoint then second.
var relations = map[string][2]model.Relation{
	"<":  {model.One, model.Many},
	">":  {model.Many, model.One},
	"-":  {model.One, model.One},
	"<>": {model.Many, model.Many},
}

var cardinalities = map[string]model.Cardinality{
	"<":  model.OneToMany,
	">":  model.ManyToOne,
	"-":  model.OneToOne,
	"<>": model.ManyToMany,
}

// boundEndpoint is an endpoint together with its column symbols.
type boundEndpoint struct {
	endpoint model.Endpoint
	columns  []*symbol.Symbol
}

// key identifies the endpoint by column symbol ids in written order.
func (e boundEndpoint) key() string {
	ids := make([]string, len(e.columns))
	for i, c := range e.columns {
		ids[i] = fmt.Sprint(c.ID)
	}
	return strings.Join(ids, ",")
}

// setKey identifies the endpoint by its set of columns.
func (e boundEndpoint) setKey() string {
	ids := make([]int, len(e.columns))
	for i, c := range e.columns {
		ids[i] = int(c.ID)
	}
	sort.Ints(ids)
	return fmt.Sprint(ids)
}

// refKey identifies a ref by the column pairs it relates. Pairs run from
// the endpoint with the smaller column set and are sorted, so neither the
// endpoint order nor the order of composite columns changes the key, while
// a different pairing of the same columns does.
type refKey string

func newRefKey(a, b boundEndpoint) refKey {
	if b.setKey() < a.setKey() {
		a, b = b, a
	}
	pairs := make([]string, len(a.columns))
	for i := range a.columns {
		pairs[i] = fmt.Sprintf("%d:%d", a.columns[i].ID, b.columns[i].ID)
	}
	sort.Strings(pairs)
	return refKey(strings.Join(pairs, ","))
}

// refElement lowers a Ref element, simple or block.
func (in *Interpreter) refElement(elem *ast.ElementDeclaration) {
	var body ast.Node
	if elem.IsSimple() {
		body = elem.Body
	} else {
		for _, item := range blockItems(elem) {
			if _, ok := item.(*ast.ElementDeclaration); !ok {
				body = item
				break
			}
		}
	}
	if ast.IsNil(body) {
		return
	}
	rel, _, ok := validator.ParseRelationship(body)
	if !ok || len(rel.Left.Columns) != len(rel.Right.Columns) {
		return
	}
	left, ok := in.bindEndpoint(rel.Left)
	if !ok {
		return
	}
	right, ok := in.bindEndpoint(rel.Right)
	if !ok {
		return
	}

	ref := model.Ref{
		OnDelete: settingWords(rel.Settings, "delete"),
		OnUpdate: settingWords(rel.Settings, "update"),
		Color:    settingColor(rel.Settings, "color"),
	}
	if vars, ok := ast.VariableChain(elem.Name); ok && !ast.IsNil(elem.Name) {
		names := ast.ChainNames(vars)
		ref.Name = names[len(names)-1]
		ref.Schema = strings.Join(trimDefaultSchema(names[:len(names)-1]), ".")
	}
	in.emitRef(elem, ref, rel.Op.Literal, left, right)
}

// inlineRefs lowers the `ref:` settings of a column.
func (in *Interpreter) inlineRefs(table *symbol.Symbol, item ast.Node) {
	col, ok := in.declared(item)
	if !ok || col.Parent != table {
		return
	}
	sf := validator.NewSubfield(item)
	for _, attr := range attributes(sf.Settings) {
		if attr.SettingName() != "ref" || ast.IsNil(attr.Value) {
			continue
		}
		prefix, ok := ast.Unwrap(attr.Value).(*ast.PrefixExpression)
		if !ok || !validator.IsRelationOp(prefix.Op) || ast.IsNil(prefix.Expression) {
			continue
		}
		target, ok := validator.ParseEndpoint(prefix.Expression)
		if !ok || target.Composite() {
			continue
		}
		right, ok := in.bindEndpoint(target)
		if !ok {
			continue
		}
		left := boundEndpoint{
			endpoint: model.Endpoint{Schema: table.SchemaName(), Table: table.Name, Columns: []string{col.Name}},
			columns:  []*symbol.Symbol{col},
		}
		in.emitRef(attr, model.Ref{Inline: true}, prefix.Op.Literal, left, right)
	}
}

// bindEndpoint reads the symbols the binder attached to an endpoint.
func (in *Interpreter) bindEndpoint(ep *validator.Endpoint) (boundEndpoint, bool) {
	var out boundEndpoint
	table, ok := in.referee(ep.Table[len(ep.Table)-1])
	if !ok || table.Kind != symbol.KindTable {
		return out, false
	}
	out.endpoint = model.Endpoint{Schema: table.SchemaName(), Table: table.Name}
	for _, v := range ep.Columns {
		col, ok := in.referee(v)
		if !ok || col.Kind != symbol.KindColumn {
			return out, false
		}
		out.columns = append(out.columns, col)
		out.endpoint.Columns = append(out.endpoint.Columns, col.Name)
	}
	return out, true
}

// emitRef checks the endpoint invariants and appends the ref.
func (in *Interpreter) emitRef(node ast.Node, ref model.Ref, op string, left, right boundEndpoint) {
	rels, ok := relations[op]
	if !ok {
		return
	}
	left.endpoint.Relation, right.endpoint.Relation = rels[0], rels[1]
	ref.Endpoints = [2]model.Endpoint{left.endpoint, right.endpoint}
	ref.Cardinality = cardinalities[op]

	if left.key() == right.key() {
		in.report(core.ErrSameEndpoint, node, "reference endpoints are the same: %s", describeEndpoint(left.endpoint))
		in.logger.Warn("dropped self reference", slog.String("endpoint", describeEndpoint(left.endpoint)))
		return
	}
	key := newRefKey(left, right)
	if in.refs[key] {
		in.report(core.ErrDuplicateRef, node, "reference between %s and %s is already defined",
			describeEndpoint(left.endpoint), describeEndpoint(right.endpoint))
		in.logger.Warn("dropped duplicate reference",
			slog.String("left", describeEndpoint(left.endpoint)),
			slog.String("right", describeEndpoint(right.endpoint)))
		return
	}
	in.refs[key] = true
	in.db.Refs = append(in.db.Refs, ref)
}

func describeEndpoint(e model.Endpoint) string {
	cols := strings.Join(e.Columns, ", ")
	if len(e.Columns) > 1 {
		cols = "(" + cols + ")"
	}
	return e.TableName() + "." + cols
}
