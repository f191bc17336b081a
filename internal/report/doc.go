// Package report renders analysis outcomes for humans and machines.
package report
