// Package modelhcl loads rewrite models from HCL files.
//
// A model file declares one grid block (alphabet, dimensions, unions) and
// one root node block describing the program tree: one, all, prl, markov,
// sequence, path, or convolution. Decoding reports hcl.Diagnostics with
// source ranges for every mistake it can attribute to a block or attribute.
package modelhcl
