// Package bruteforce provides a sphere point index that answers kNN queries
// by scanning every point into a bounded nearest set. It is the baseline the
// tree indexes are checked against and the default for small datasets.
package bruteforce
