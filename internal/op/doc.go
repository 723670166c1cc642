// Package op defines the closed set of primitive operators a lumen graph is
// built from, plus the single open extension point (Custom) used by backend
// passes to install their own operators.
//
// Every operator consumes (tensor, shape.Tracker) pairs and produces flat
// output tensors. Movement operators never copy: they return a new handle to
// the input buffer and let the edge Tracker describe the new view.
package op
