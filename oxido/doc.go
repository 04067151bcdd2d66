// Package oxido implements the Oxido language front end and tree-walking
// evaluator. The language supports:
//   - Variable declarations via `let name: type = expr;` with optional type
//     annotations, and reassignment via `name = expr;`.
//   - Static type markers `int`, `bool`, `str` and `vec<T>`.
//   - Vectors with indexed reads `v[i]` and writes `v[i] = x;` (writing at
//     `len(v)` appends).
//   - Conditionals (`if`/`else`), unbounded `loop` blocks with `break`.
//   - Functions declared with `fn name(a: int, b: str): int { ... }` that
//     return values through `return expr;`.
//   - Built-ins print, println, read, int, bool, str and vec.
//
// Comments beginning with `#` are ignored. Every failure is reported as a
// *Diagnostic carrying a source span; the `exit` statement surfaces as an
// *ExitError so hosts decide how to terminate.
package oxido
