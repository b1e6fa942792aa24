/*
Package flatdoc implements an in-memory JSON-like document tree stored as one
flat array of nodes in breadth-first order.

# Layout

Every node records its name, its value and the absolute position of its
parent. Position 0 holds a synthetic root (parent -1); the document root, an
object or an array, sits at position 1. Reading the array left to right, the
parent positions never decrease. As a consequence the children of any node
form one contiguous run that follows the node, and that run is found with two
binary searches over parent positions (see Cursor.Begin and Cursor.End).

Appending a child to the container whose children end the array is a plain
append. Any other insert shifts the tail of the array and renumbers the parent
positions that moved with it; this bumps the tree's generation, and cursors
obtained earlier panic with ErrStaleCursor when used.

Removal is two-phase. Cursor.Remove tombstones a node and its whole subtree
without moving anything; Tree.Compact physically erases tombstones.

# Values

A Value is a kind tag plus a byte buffer. Integers and floats are stored
little-endian at a width fixed per tree (Options.Widths, 32 or 64 bits).
Accessors are checked: asking a string value for its Int panics with a
*KindError instead of reinterpreting bytes.

# Ingestion

Text is read by Scan, which reports structure to a Handler. A Builder is
the Handler that stages nodes in depth-first discovery order and then lays
them out one depth level at a time (Builder.Materialize). Parse combines the
two. Trees can also be loaded from an event sequence (Tree.Load) and walked
back into one (Walk, Tree.Events).

String escapes are kept verbatim: "a\nb" is stored as the four bytes
a, backslash, n, b and written back the same way. Value.Text decodes them.

# Output

Encode writes one node per line with two-space indentation per depth,
"name": prefixes for object members, and a comma after every sibling but the
last. Floats are written in plain decimal notation and always contain a
decimal point.

# Persistence

MarshalBinary produces a msgpack snapshot of the live nodes. DB stores
snapshots by name in Bolt (or in memory), prefixed with a header:

1. Flags (uvarint), carrying the format version.
2. Fingerprint (fixed64), Tree.Fingerprint of the stored tree.
3. Data size (uvarint).

Put skips the write when the stored fingerprint already matches.
*/
package flatdoc
