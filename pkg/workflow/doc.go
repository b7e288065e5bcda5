// Package workflow drives the portal through the two resumable jobs of the bot.
//
// The query workflow submits each saved query once per reporter country and
// records every confirmed submission in a per-query done log. A failed
// country is logged, the browser session is rebuilt and the loop moves on;
// the country stays outstanding and is attempted again on the next run.
//
// The download workflow walks the results grid forward from a saved page
// cursor, downloading each row not yet recorded as downloaded or skipped.
// The grid is re-read after every action and the cursor moves only when a
// page has nothing left to act on.
//
// Runner executes whichever workflows are enabled and reports each one
// through a Notifier.
package workflow
