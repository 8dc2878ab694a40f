// Package ledger is the content-addressed store the sensemaker core is built
// on.
//
// Entries are immutable and addressed by the hash of their type and
// canonical content. Every write is an Action addressed by its own hash; an
// update or delete names the revision it replaces. Links are typed, tagged
// edges between addresses and are the only secondary index.
//
// Two backends implement Ledger: ledger/sqlite and ledger/badger. Both are
// checked by the suite in ledger/ledgertest.
package ledger
