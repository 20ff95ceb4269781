/*
Package permission defines the boundary between the gateway and the
permission-evaluation engine.

A Factory turns the caller's Ability into a Checker bound to one model. The
gateway only asks the Checker yes/no questions, asks it to scope queries and
to sanitize payloads; how an ability is computed from roles is not its
concern. The rules sub-package provides a rule-based Factory.
*/
package permission
