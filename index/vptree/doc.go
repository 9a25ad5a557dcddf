// Package vptree provides a vantage-point tree index over sphere points. Each
// node splits its remaining points at the median great-circle distance to the
// vantage point; queries skip a half whenever the triangle inequality proves
// it cannot beat the current k-th best distance.
package vptree
