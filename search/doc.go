/*
Package search selects the subset of the features of a classifier that best agrees with the complete
classifier, given a cost budget.

The classifier is a weighted circuit where each feature is represented by a set of indicator variables.
The agreement of a subset Y of the features X is the probability that the decision taken after observing
Y is the same as the one taken after observing X.

Before the search starts, features are moved on top of the variable order: the i'th feature becomes
the left child of the i'th node of the right-most path of the vtree. During the search, features keep
being moved along that path so that the ones currently selected are always found first. This way,
the selected features and all the features are each described by a single vtree node.

Two strategies are available. Exhaustive decides each feature in turn and prunes subtrees whose bound
cannot beat the best subset found so far:

    res, err := search.Solve(m, root, data, search.Exhaustive{})

BranchAndBound removes features from the complete set until at most as many remain as
the cheapest features the budget can pay for:

    res, err := search.Solve(m, root, data, search.BranchAndBound{})
*/
package search
