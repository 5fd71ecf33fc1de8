package reconcile

import (
	"testing"
	"time"

	"github.com/ErikPlachta/sheetpipe/pkg/ownership"
	"github.com/ErikPlachta/sheetpipe/pkg/workbook"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newTestReconciler() *Reconciler {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	return NewReconciler(log)
}

func managedRecord(sheet, table, operationID string) ownership.Record {
	return ownership.Record{
		SheetName:      sheet,
		TableName:      table,
		OperationID:    operationID,
		IsManaged:      true,
		LastTouchedUTC: time.Now().UTC(),
	}
}

func TestResolve_ManagedTableWinsOverHint(t *testing.T) {
	r := newTestReconciler()

	tables := []workbook.TableInfo{{SheetName: "Data", Name: "tbl_sales"}}
	records := []ownership.Record{managedRecord("Data", "tbl_sales", "sales-summary")}

	got := r.Resolve("sales-summary", Hint{SheetName: "Other", TableName: "elsewhere"}, tables, records)

	assert.Equal(t, Target{SheetName: "Data", TableName: "tbl_sales", IsExisting: true}, got)
}

func TestResolve_ManagedRecordIgnoredWhenTableGone(t *testing.T) {
	r := newTestReconciler()

	records := []ownership.Record{managedRecord("Data", "tbl_sales", "sales-summary")}

	got := r.Resolve("sales-summary", Hint{SheetName: "Data", TableName: "tbl_sales"}, nil, records)

	assert.Equal(t, Target{SheetName: "Data", TableName: "tbl_sales", IsExisting: false}, got)
}

func TestResolve_ManagedRecordIgnoredWhenTableMovedSheets(t *testing.T) {
	r := newTestReconciler()

	// Same name exists, but on a different sheet than the record says
	tables := []workbook.TableInfo{{SheetName: "Moved", Name: "tbl_sales"}}
	records := []ownership.Record{managedRecord("Data", "tbl_sales", "sales-summary")}

	got := r.Resolve("sales-summary", Hint{SheetName: "Fresh", TableName: "fresh_name"}, tables, records)

	assert.Equal(t, Target{SheetName: "Fresh", TableName: "fresh_name", IsExisting: false}, got)
}

func TestResolve_OtherOperationsRecordDoesNotMatch(t *testing.T) {
	r := newTestReconciler()

	tables := []workbook.TableInfo{{SheetName: "Data", Name: "tbl_inventory"}}
	records := []ownership.Record{managedRecord("Data", "tbl_inventory", "inventory")}

	got := r.Resolve("sales-summary", Hint{SheetName: "Data", TableName: "tbl_sales"}, tables, records)

	assert.Equal(t, Target{SheetName: "Data", TableName: "tbl_sales", IsExisting: false}, got)
}

func TestResolve_FreeHintTakenVerbatim(t *testing.T) {
	r := newTestReconciler()

	got := r.Resolve("sales-summary", Hint{SheetName: "Sheet1", TableName: "tbl_Sales"}, nil, nil)

	assert.Equal(t, Target{SheetName: "Sheet1", TableName: "tbl_Sales", IsExisting: false}, got)
}

func TestResolve_ForeignTableForcesRename(t *testing.T) {
	r := newTestReconciler()

	// The hinted name exists but belongs to the user, not to us
	tables := []workbook.TableInfo{{SheetName: "Sheet1", Name: "tbl_Sales"}}

	got := r.Resolve("sales-summary", Hint{SheetName: "Sheet1", TableName: "tbl_Sales"}, tables, nil)

	assert.Equal(t, Target{SheetName: "Sheet1", TableName: "tbl_Sales_sales-summary", IsExisting: false}, got)
}

func TestResolve_UnmanagedRecordNeverReused(t *testing.T) {
	r := newTestReconciler()

	tables := []workbook.TableInfo{{SheetName: "Data", Name: "tbl_sales"}}
	records := []ownership.Record{{
		SheetName: "Data", TableName: "tbl_sales", OperationID: "sales-summary", IsManaged: false,
	}}

	got := r.Resolve("sales-summary", Hint{SheetName: "Data", TableName: "tbl_sales"}, tables, records)

	// Falls through to conflict handling because the name is taken
	assert.Equal(t, Target{SheetName: "Data", TableName: "tbl_sales_sales-summary", IsExisting: false}, got)
}
