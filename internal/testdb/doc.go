// Package testdb provides helpers for Postgres integration tests.
//
// Tests are skipped unless DATABASE_URL (or TASKFLOW_TEST_DB_URL) is set.
// The schema is migrated once per test binary with the embedded goose
// migrations, and every test runs inside a transaction that is rolled back:
//
//	func TestSomething(t *testing.T) {
//	    t.Parallel()
//	    db := testdb.GetTestDBWithT(t)
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        tasks := postgres.NewPostgresTaskStore(tx, nil)
//	        // ...
//	    })
//	}
package testdb
