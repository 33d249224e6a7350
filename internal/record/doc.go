// Package record defines the value types that flow through the discovery,
// classification, verification, and ranking stages. Records move between
// stages by value so no stage can mutate another stage's working set.
package record
