/*
Package circuit gives access to a small logical circuit engine.
A Manager owns a set of nodes, each one representing a Boolean function over at most 64 variables,
and a variable order (a vtree) the nodes are associated with.

Building nodes

Nodes can be obtained from literals, from a list of models, or by compiling a DIMACS CNF stream.
If the io.Reader produces the following content:

    p cnf 3 2
    1 2 0
    -1 3 0

the programmer can compile it by doing:

    cnf, err := circuit.ParseCNF(f)
    m, err := circuit.NewManager(cnf.NbVars, circuit.DefaultOptions())
    root, err := circuit.Compile(m, cnf)

Nodes can then be combined with Condition, Conjoin and Disjoin.

Memory management

Nodes are reference counted. A node that is not referenced (see Manager.Ref) is freed by the next call
to GarbageCollect, and using it afterwards is a programming error. Literals and constants are never freed.

Variable order

The vtree is a full binary tree whose leaves are the variables. MoveVar destructively changes it:
the leaf of a variable becomes the sibling of a given vtree node. Moving variables never changes the
function represented by a node.

Evaluation

Evaluate computes, for a weighted node, the expected agreement between a classifier that observes
a set of features X and one that only observes a subset Y of X. X and Y are described by two
nodes of the right-most path of the vtree.
*/
package circuit
