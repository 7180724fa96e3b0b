package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Token types for the MiniJava lexer
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenInteger    // 42
	TokenIdentifier // foo, Bar

	// Keywords
	TokenClass
	TokenPublic
	TokenStatic
	TokenVoid
	TokenExtends
	TokenReturn
	TokenInt
	TokenBoolean
	TokenIf
	TokenElse
	TokenWhile
	TokenTrue
	TokenFalse
	TokenThis
	TokenNew
	TokenPrintln // System.out.println

	// Delimiters
	TokenLParen    // (
	TokenRParen    // )
	TokenLBracket  // [
	TokenRBracket  // ]
	TokenLBrace    // {
	TokenRBrace    // }
	TokenSemicolon // ;
	TokenComma     // ,
	TokenPeriod    // .
	TokenAssign    // =

	// Operators
	TokenAnd     // &&
	TokenOr      // ||
	TokenLess    // <
	TokenGreater // >
	TokenEqual   // ==
	TokenPlus    // +
	TokenMinus   // -
	TokenStar    // *
	TokenSlash   // /
	TokenBang    // !
)

var tokenNames = map[TokenType]string{
	TokenEOF:        "EOF",
	TokenError:      "ERROR",
	TokenInteger:    "INTEGER",
	TokenIdentifier: "IDENTIFIER",
	TokenClass:      "class",
	TokenPublic:     "public",
	TokenStatic:     "static",
	TokenVoid:       "void",
	TokenExtends:    "extends",
	TokenReturn:     "return",
	TokenInt:        "int",
	TokenBoolean:    "boolean",
	TokenIf:         "if",
	TokenElse:       "else",
	TokenWhile:      "while",
	TokenTrue:       "true",
	TokenFalse:      "false",
	TokenThis:       "this",
	TokenNew:        "new",
	TokenPrintln:    "System.out.println",
	TokenLParen:     "(",
	TokenRParen:     ")",
	TokenLBracket:   "[",
	TokenRBracket:   "]",
	TokenLBrace:     "{",
	TokenRBrace:     "}",
	TokenSemicolon:  ";",
	TokenComma:      ",",
	TokenPeriod:     ".",
	TokenAssign:     "=",
	TokenAnd:        "&&",
	TokenOr:         "||",
	TokenLess:       "<",
	TokenGreater:    ">",
	TokenEqual:      "==",
	TokenPlus:       "+",
	TokenMinus:      "-",
	TokenStar:       "*",
	TokenSlash:      "/",
	TokenBang:       "!",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", t)
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string   // the raw text
	Pos     Position // start position
}

func (t Token) String() string {
	if t.Type == TokenEOF {
		return "EOF"
	}
	if t.Type == TokenError {
		return fmt.Sprintf("ERROR(%s)", t.Literal)
	}
	if len(t.Literal) > 20 {
		return fmt.Sprintf("%s(%q...)", t.Type, t.Literal[:20])
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
}

// Reserved words mapped to their token types.
var reservedWords = map[string]TokenType{
	"class":   TokenClass,
	"public":  TokenPublic,
	"static":  TokenStatic,
	"void":    TokenVoid,
	"extends": TokenExtends,
	"return":  TokenReturn,
	"int":     TokenInt,
	"boolean": TokenBoolean,
	"if":      TokenIf,
	"else":    TokenElse,
	"while":   TokenWhile,
	"true":    TokenTrue,
	"false":   TokenFalse,
	"this":    TokenThis,
	"new":     TokenNew,
}

// printlnSuffix follows the identifier System to form the print keyword.
const printlnSuffix = ".out.println"
