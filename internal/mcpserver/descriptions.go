package mcpserver

func describeAnalyze() string {
	return `Analyzes the indexed codebase for duplicate functions, classes, and code blocks.
Returns exact duplicates (identical structure, identifiers and literals ignored) and
pattern duplicates (same shape, different operators), grouped into clusters.

USE WHEN:
- Looking for copy-paste code before a refactor
- Auditing how much of a codebase is structurally duplicated
- Deciding what to suppress as idiomatic versus what to actually fix

INTERPRETING RESULTS:
- exact clusters: identical structure and operators; identifiers and literals may differ
- pattern clusters: same shape, differing only in which operators are used
- block clusters: duplicated control-flow bodies (for/if/while/try), not whole units

thorough=true lowers the significance thresholds to surface small duplicates too;
thorough=false (the default) only reports duplicates above the usual
significance thresholds. auto_reindex controls whether this call re-walks the
tree before clustering or reuses the last indexed snapshot.`
}

func describeWrite() string {
	return `Checks proposed file content for structural duplicates before it exists anywhere.
Runs the same clustering pass as astrograph_analyze, but against only the given
content plus the current index, using the stricter pre-create threshold.

Does not write anything to disk — this tool only reports what would collide.
An exact-kind cluster in the result means identical code already exists
elsewhere; a pattern-kind cluster means a near-duplicate does.`
}

func describeEdit() string {
	return `Checks an edit to an existing file for structural duplicates before it is applied.
old_string must match exactly once in the file; its line range is replaced with
new_string and the resulting file content is checked the same way
astrograph_write checks new content. Does not modify the file.`
}

func describeSuppress() string {
	return `Suppresses a duplicate cluster by its cluster_key (as shown in astrograph_analyze
output), so it no longer appears in future astrograph_analyze results. The
suppression stops applying automatically if any member's evidence digest
changes, i.e. once the duplicated code itself is edited.`
}

func describeUnsuppress() string {
	return `Removes a previously added suppression, so its cluster appears in
astrograph_analyze results again.`
}

func describeListSuppressions() string {
	return `Lists every currently active suppression: its cluster key, reason, and
creation time. Suppressions that have gone stale (a member's evidence digest
no longer matches) are not listed, since they are no longer active.`
}

func describeSuppressIdiomatic() string {
	return `Suppresses every duplicate cluster from the most recent analysis that the
recommendation engine classifies as test-only duplication (every member lives
in a test file). Clusters with a confidence score below 0.55 are suppressed as
well, but the engine never scores a cluster below 0.6, so test-only
duplication is in practice the only kind suppressed.

Use this once after reviewing astrograph_analyze output, instead of calling
astrograph_suppress once per idiomatic cluster.`
}
