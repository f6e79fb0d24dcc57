/*
Package wire converts between domain values and the bytes carried on the bus.

Commands arrive as small JSON documents (or bare labels) and notifications leave
as single-line status text:

	success true; status_code 0; message: Successfully picked apple

The text form is a contract with downstream consumers that match on it, so
FormatStatus and ParseStatus must stay symmetric.
*/
package wire
