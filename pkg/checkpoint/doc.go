// Package checkpoint records bot progress so an interrupted run can resume.
//
// Progress lives in flat text files under the output directory, one
// identifier per line, only ever appended to:
//   - download/done_pages.txt      page cursor, last valid line wins
//   - download/done_targets.txt    result ids downloaded
//   - download/skipped_targets.txt result ids the portal refused
//   - download/failed_targets.txt  result ids that errored (informational)
//   - queries/done/<query>.txt     ISO3 codes submitted
//   - queries/failed/<query>.txt   ISO3 codes whose submission failed
//
// Each append reaches the file before it returns, so a crash loses at most
// the action in flight. Blank lines are ignored. Lines that cannot be read are
// skipped with a warning naming the file and line; loading only fails on I/O
// errors. A missing log reads as empty, and a missing cursor log as page 1.
package checkpoint
