// Package reconcile decides where a materialization lands: reuse the managed
// table, take the requested hint, or rename away from a user-owned table.
package reconcile

import (
	"github.com/ErikPlachta/sheetpipe/pkg/ownership"
	"github.com/ErikPlachta/sheetpipe/pkg/workbook"
	"github.com/sirupsen/logrus"
)

// Target is the resolved destination for a write
type Target struct {
	SheetName  string `json:"sheetName"`
	TableName  string `json:"tableName"`
	IsExisting bool   `json:"isExisting"`
}

// Hint is the caller's requested destination
type Hint struct {
	SheetName string
	TableName string
}

// Reconciler resolves write targets from ownership records and host state.
// Header mismatches are not its concern; the writer detects those during the
// write itself.
type Reconciler struct {
	log logrus.FieldLogger
}

// NewReconciler creates a reconciler
func NewReconciler(log logrus.FieldLogger) *Reconciler {
	return &Reconciler{log: log.WithField("component", "reconcile")}
}

// Resolve applies the target resolution states in order:
//
//  1. A managed record for this operation whose table still exists wins
//     outright; the hint is ignored.
//  2. No managed record and the hinted name is free: take the hint verbatim.
//  3. No managed record but the hinted name belongs to someone else: rename
//     to "<table>_<operation>" on the hinted sheet and leave the foreign
//     table alone.
func (r *Reconciler) Resolve(operationID string, hint Hint, tables []workbook.TableInfo, records []ownership.Record) Target {
	existing := make(map[string]workbook.TableInfo, len(tables))
	for _, t := range tables {
		existing[t.Name] = t
	}

	for _, rec := range records {
		if !rec.IsManaged || rec.OperationID != operationID {
			continue
		}
		if t, ok := existing[rec.TableName]; ok && t.SheetName == rec.SheetName {
			r.log.WithFields(logrus.Fields{
				"operation_id": operationID,
				"sheet":        rec.SheetName,
				"table":        rec.TableName,
			}).Debug("Reusing managed table")

			return Target{SheetName: rec.SheetName, TableName: rec.TableName, IsExisting: true}
		}
	}

	if _, taken := existing[hint.TableName]; !taken {
		return Target{SheetName: hint.SheetName, TableName: hint.TableName, IsExisting: false}
	}

	renamed := hint.TableName + "_" + operationID
	r.log.WithFields(logrus.Fields{
		"operation_id": operationID,
		"requested":    hint.TableName,
		"resolved":     renamed,
	}).Info("Requested table name is taken, renaming target")

	return Target{SheetName: hint.SheetName, TableName: renamed, IsExisting: false}
}
