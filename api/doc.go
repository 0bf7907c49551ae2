/*
Package api defines the wire envelope exchanged between a local node and
remote cloud services: a Request carrying one operation and a Response
answering exactly one Request.

Envelopes and payloads are encoded as CBOR maps keyed by small stable
integers rather than field names. Integer keys keep the wire format
compact and make schema evolution explicit: a field's key never changes
meaning once assigned.

# Schema Tags

Every tagged wire struct carries a fixed numeric discriminant (TypeTag)
in field 0. Encoders always write the constant belonging to the struct
being encoded. Decoders compare the received tag against the constant
expected at that position and fail on mismatch, so a payload of the
wrong kind is rejected during decode instead of being silently coerced
into a sibling schema that happens to share field numbers.

# Envelope Shapes

	Request  {0: tag, 1: id, 2: path, 3: method, 4: body?}
	Response {0: tag, 1: id, 2: status, 3: body?}

The response id echoes the id of the request it answers. Body fields
hold the already-encoded payload bytes; payload schemas live next to
the code that owns them (see the enroll package) and are decoded with
their own tag-checking helpers.

# Statuses

Status values follow HTTP conventions (200, 400, 500, ...) so they can
be mirrored onto HTTP transports without translation tables.
*/
package api
