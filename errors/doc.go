/*
Package errors implements coded errors used across all trust engine
packages.

Each error returned by an operation wraps one of the registered root errors
declared here. The root error carries a numeric code that allows a client to
distinguish the kind of failure, while the wrapping message provides a human
readable reason.

To register a custom root error use Register(code, description). To create
an instance use ErrXyz.New or Wrap(ErrXyz, "..."). The first wrap attaches a
stack trace, print it with %+v.

Test the kind of an error with ErrXyz.Is(err). Field errors created with
Field can be collected with FieldErrors.
*/
package errors
