package circuit

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
	"github.com/pkg/errors"
)

const satisfiable = 1

// Compile returns a node equivalent to cnf.
// Models are enumerated with a SAT solver, adding a blocking clause after each model found.
// Variables that appear in no clause are left out of the support of the result.
func Compile(m *Manager, cnf *CNF) (*Node, error) {
	if cnf.NbVars > m.nbVars {
		return nil, errors.Wrapf(ErrVarOutOfRange, "CNF has %d vars, manager only %d", cnf.NbVars, m.nbVars)
	}
	g := gini.NewV(cnf.NbVars)
	var support uint64
	for _, clause := range cnf.Clauses {
		if len(clause) == 0 {
			return m.fals, nil
		}
		for _, lit := range clause {
			v := lit
			if v < 0 {
				v = -v
			}
			support |= varBit(v)
			g.Add(z.Dimacs2Lit(lit))
		}
		g.Add(z.LitNull)
	}
	vars := maskVars(support)
	models := roaring64.New()
	blocking := make([]z.Lit, len(vars))
	for g.Solve() == satisfiable {
		var model uint64
		for i, v := range vars {
			lit := z.Dimacs2Lit(v)
			if g.Value(lit) {
				model |= varBit(v)
				blocking[i] = lit.Not()
			} else {
				blocking[i] = lit
			}
		}
		models.Add(model)
		if card := models.GetCardinality(); card > uint64(m.opts.MaxModels) {
			return nil, errors.Wrapf(ErrTooLarge, "more than %d models", m.opts.MaxModels)
		}
		if len(vars) == 0 {
			break
		}
		for _, lit := range blocking {
			g.Add(lit)
		}
		g.Add(z.LitNull)
	}
	return m.newNode(support, models), nil
}
