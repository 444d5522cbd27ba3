/*
Package semtok classifies stylesheet text into LSP semantic tokens.

	  Stylesheet text
	        |
	   line by line
	        |
	        v
	+---------------+     depth, value/name side,
	|   Tokenizer   | <-- open block comment
	+---------------+
	        |
	        v
	+---------------+     Encode     +-----------------+
	|   []Token     | -------------> | relative uint32 |
	+---------------+                +-----------------+

Outside a block the tokenizer reads selectors: elements, .classes, #ids and
:pseudo-classes. Inside a block, text before the declaration colon is a
property (or a custom property declaration) and text after it is a value:
functions, numbers with units, hex colors, strings, variables and keywords.
Comments may span lines and are emitted once per line, since clients are not
assumed to support multiline tokens.
*/
package semtok
