package sqlfe

import (
	"strings"

	"github.com/chocapikk/arcdb/internal/dberr"
)

// Parser is a recursive-descent parser over a token stream, with
// operator-precedence climbing for expressions.
type Parser struct {
	lex  *Lexer
	cur  Token
	next Token
}

// NewParser returns a parser over src.
func NewParser(src string) (*Parser, error) {
	p := &Parser{lex: NewLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parser) advance() error {
	p.cur = p.next
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.next = tok
	return nil
}

// Parse parses exactly one statement, optionally followed by a
// trailing semicolon, and verifies no trailing garbage remains.
func Parse(src string) (Statement, error) {
	p, err := NewParser(src)
	if err != nil {
		return nil, err
	}
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if p.curIsDelim(";") {
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if p.cur.Kind != TokEOF {
		return nil, dberr.Newf(dberr.KindParse, "unexpected trailing input near %q", p.cur.Text)
	}
	return stmt, nil
}

func (p *Parser) curIsKeyword(kw string) bool {
	return p.cur.Kind == TokKeyword && p.cur.Text == kw
}

func (p *Parser) curIsOp(op string) bool {
	return p.cur.Kind == TokOperator && p.cur.Text == op
}

func (p *Parser) curIsDelim(d string) bool {
	return p.cur.Kind == TokDelimiter && p.cur.Text == d
}

func (p *Parser) expectKeyword(kw string) error {
	if !p.curIsKeyword(kw) {
		return dberr.Newf(dberr.KindParse, "expected keyword %s, got %q", kw, p.cur.Text)
	}
	return p.advance()
}

func (p *Parser) expectDelim(d string) error {
	if !p.curIsDelim(d) {
		return dberr.Newf(dberr.KindParse, "expected %q, got %q", d, p.cur.Text)
	}
	return p.advance()
}

func (p *Parser) expectIdentifier() (string, error) {
	if p.cur.Kind != TokIdentifier {
		return "", dberr.Newf(dberr.KindParse, "expected identifier, got %q", p.cur.Text)
	}
	name := p.cur.Text
	return name, p.advance()
}

func (p *Parser) parseStatement() (Statement, error) {
	switch {
	case p.curIsKeyword("SELECT"):
		return p.parseSelect()
	case p.curIsKeyword("INSERT"):
		return p.parseInsert()
	case p.curIsKeyword("UPDATE"):
		return p.parseUpdate()
	case p.curIsKeyword("DELETE"):
		return p.parseDelete()
	case p.curIsKeyword("CREATE"):
		return p.parseCreate()
	case p.curIsKeyword("DROP"):
		return p.parseDrop()
	case p.curIsKeyword("ANALYZE"):
		return p.parseAnalyze()
	case p.curIsKeyword("BEGIN"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.curIsKeyword("TRANSACTION") {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		return &BeginStatement{}, nil
	case p.curIsKeyword("COMMIT"):
		return &CommitStatement{}, p.advance()
	case p.curIsKeyword("ROLLBACK"):
		return &RollbackStatement{}, p.advance()
	default:
		return nil, dberr.Newf(dberr.KindParse, "unexpected token %q at start of statement", p.cur.Text)
	}
}

// ---- SELECT ----

func (p *Parser) parseSelect() (*SelectStatement, error) {
	if err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}
	stmt := &SelectStatement{}
	if p.curIsKeyword("DISTINCT") {
		stmt.Distinct = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	items, err := p.parseSelectItems()
	if err != nil {
		return nil, err
	}
	stmt.Columns = items

	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	from, err := p.parseFromClause()
	if err != nil {
		return nil, err
	}
	stmt.From = from

	if p.curIsKeyword("WHERE") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		stmt.Where = expr
	}

	if p.curIsKeyword("GROUP") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		for {
			e, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			stmt.GroupBy = append(stmt.GroupBy, e)
			if !p.curIsDelim(",") {
				break
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}

	if p.curIsKeyword("HAVING") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		stmt.Having = e
	}

	if p.curIsKeyword("ORDER") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		for {
			e, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			asc := true
			if p.curIsKeyword("ASC") {
				if err := p.advance(); err != nil {
					return nil, err
				}
			} else if p.curIsKeyword("DESC") {
				asc = false
				if err := p.advance(); err != nil {
					return nil, err
				}
			}
			stmt.OrderBy = append(stmt.OrderBy, OrderByItem{Expr: e, Ascending: asc})
			if !p.curIsDelim(",") {
				break
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}

	if p.curIsKeyword("LIMIT") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		stmt.Limit = e
	}

	if p.curIsKeyword("OFFSET") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		stmt.Offset = e
	}

	return stmt, nil
}

func (p *Parser) parseSelectItems() ([]SelectItem, error) {
	var items []SelectItem
	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if !p.curIsDelim(",") {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (p *Parser) parseSelectItem() (SelectItem, error) {
	if p.curIsOp("*") {
		if err := p.advance(); err != nil {
			return SelectItem{}, err
		}
		return SelectItem{Wildcard: true}, nil
	}

	// table.* lookahead: identifier '.' '*'. A clone of the lexer reads
	// the third token without disturbing the parser's own position, so
	// a non-wildcard "table.column" falls through to the normal
	// column-reference path below with no backtracking needed.
	if p.cur.Kind == TokIdentifier && p.next.Kind == TokDelimiter && p.next.Text == "." {
		lookahead := *p.lex
		third, err := lookahead.Next()
		if err != nil {
			return SelectItem{}, err
		}
		if third.Kind == TokOperator && third.Text == "*" {
			table := p.cur.Text
			if err := p.advance(); err != nil { // consume identifier
				return SelectItem{}, err
			}
			if err := p.advance(); err != nil { // consume '.'
				return SelectItem{}, err
			}
			if err := p.advance(); err != nil { // consume '*'
				return SelectItem{}, err
			}
			return SelectItem{QualifiedWildcard: table}, nil
		}
	}

	expr, err := p.parseExpr(0)
	if err != nil {
		return SelectItem{}, err
	}
	item := SelectItem{Expr: expr}
	if p.curIsKeyword("AS") {
		if err := p.advance(); err != nil {
			return SelectItem{}, err
		}
		alias, err := p.expectIdentifier()
		if err != nil {
			return SelectItem{}, err
		}
		item.Alias = alias
	} else if p.cur.Kind == TokIdentifier {
		item.Alias = p.cur.Text
		if err := p.advance(); err != nil {
			return SelectItem{}, err
		}
	}
	return item, nil
}

func (p *Parser) parseTableRef() (TableRef, error) {
	name, err := p.expectIdentifier()
	if err != nil {
		return TableRef{}, err
	}
	ref := TableRef{Name: name}
	if p.curIsKeyword("AS") {
		if err := p.advance(); err != nil {
			return TableRef{}, err
		}
		alias, err := p.expectIdentifier()
		if err != nil {
			return TableRef{}, err
		}
		ref.Alias = alias
	} else if p.cur.Kind == TokIdentifier {
		ref.Alias = p.cur.Text
		if err := p.advance(); err != nil {
			return TableRef{}, err
		}
	}
	return ref, nil
}

func (p *Parser) parseFromClause() (FromClause, error) {
	table, err := p.parseTableRef()
	if err != nil {
		return FromClause{}, err
	}
	fc := FromClause{Table: table}
	for {
		jt, ok, err := p.tryParseJoinKeyword()
		if err != nil {
			return FromClause{}, err
		}
		if !ok {
			break
		}
		joinTable, err := p.parseTableRef()
		if err != nil {
			return FromClause{}, err
		}
		var cond Expr
		if jt != JoinCross {
			if err := p.expectKeyword("ON"); err != nil {
				return FromClause{}, err
			}
			cond, err = p.parseExpr(0)
			if err != nil {
				return FromClause{}, err
			}
		}
		fc.Joins = append(fc.Joins, Join{Type: jt, Table: joinTable, Condition: cond})
	}
	return fc, nil
}

func (p *Parser) tryParseJoinKeyword() (JoinType, bool, error) {
	switch {
	case p.curIsKeyword("JOIN"):
		return JoinInner, true, p.advance()
	case p.curIsKeyword("INNER"):
		if err := p.advance(); err != nil {
			return 0, false, err
		}
		return JoinInner, true, p.expectKeyword("JOIN")
	case p.curIsKeyword("LEFT"):
		if err := p.advance(); err != nil {
			return 0, false, err
		}
		if p.curIsKeyword("OUTER") {
			if err := p.advance(); err != nil {
				return 0, false, err
			}
		}
		return JoinLeft, true, p.expectKeyword("JOIN")
	case p.curIsKeyword("RIGHT"):
		if err := p.advance(); err != nil {
			return 0, false, err
		}
		if p.curIsKeyword("OUTER") {
			if err := p.advance(); err != nil {
				return 0, false, err
			}
		}
		return JoinRight, true, p.expectKeyword("JOIN")
	case p.curIsKeyword("FULL"):
		if err := p.advance(); err != nil {
			return 0, false, err
		}
		if p.curIsKeyword("OUTER") {
			if err := p.advance(); err != nil {
				return 0, false, err
			}
		}
		return JoinFull, true, p.expectKeyword("JOIN")
	case p.curIsKeyword("CROSS"):
		if err := p.advance(); err != nil {
			return 0, false, err
		}
		return JoinCross, true, p.expectKeyword("JOIN")
	default:
		return 0, false, nil
	}
}

// ---- INSERT / UPDATE / DELETE ----

func (p *Parser) parseInsert() (*InsertStatement, error) {
	if err := p.expectKeyword("INSERT"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("INTO"); err != nil {
		return nil, err
	}
	table, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	stmt := &InsertStatement{Table: table}

	if p.curIsDelim("(") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		for {
			col, err := p.expectIdentifier()
			if err != nil {
				return nil, err
			}
			stmt.Columns = append(stmt.Columns, col)
			if !p.curIsDelim(",") {
				break
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		if err := p.expectDelim(")"); err != nil {
			return nil, err
		}
	}

	if err := p.expectKeyword("VALUES"); err != nil {
		return nil, err
	}
	for {
		if err := p.expectDelim("("); err != nil {
			return nil, err
		}
		var row []Expr
		for {
			e, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			row = append(row, e)
			if !p.curIsDelim(",") {
				break
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		if err := p.expectDelim(")"); err != nil {
			return nil, err
		}
		stmt.Values = append(stmt.Values, row)
		if !p.curIsDelim(",") {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) parseUpdate() (*UpdateStatement, error) {
	if err := p.expectKeyword("UPDATE"); err != nil {
		return nil, err
	}
	table, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	stmt := &UpdateStatement{Table: table}
	if err := p.expectKeyword("SET"); err != nil {
		return nil, err
	}
	for {
		col, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp("="); err != nil {
			return nil, err
		}
		val, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		stmt.Assignments = append(stmt.Assignments, Assignment{Column: col, Value: val})
		if !p.curIsDelim(",") {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if p.curIsKeyword("WHERE") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		stmt.Where = e
	}
	return stmt, nil
}

func (p *Parser) expectOp(op string) error {
	if !p.curIsOp(op) {
		return dberr.Newf(dberr.KindParse, "expected %q, got %q", op, p.cur.Text)
	}
	return p.advance()
}

func (p *Parser) parseDelete() (*DeleteStatement, error) {
	if err := p.expectKeyword("DELETE"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	table, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	stmt := &DeleteStatement{Table: table}
	if p.curIsKeyword("WHERE") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		stmt.Where = e
	}
	return stmt, nil
}

func (p *Parser) parseAnalyze() (*AnalyzeStatement, error) {
	if err := p.expectKeyword("ANALYZE"); err != nil {
		return nil, err
	}
	table, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	return &AnalyzeStatement{Table: table}, nil
}

// ---- DDL ----

func (p *Parser) parseCreate() (Statement, error) {
	if err := p.expectKeyword("CREATE"); err != nil {
		return nil, err
	}
	if p.curIsKeyword("TABLE") {
		return p.parseCreateTable()
	}
	if p.curIsKeyword("UNIQUE") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.parseCreateIndex(true)
	}
	if p.curIsKeyword("INDEX") {
		return p.parseCreateIndex(false)
	}
	return nil, dberr.Newf(dberr.KindParse, "expected TABLE, INDEX, or UNIQUE INDEX after CREATE, got %q", p.cur.Text)
}

func (p *Parser) parseCreateTable() (*CreateTableStatement, error) {
	if err := p.expectKeyword("TABLE"); err != nil {
		return nil, err
	}
	stmt := &CreateTableStatement{}
	if p.curIsKeyword("IF") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("NOT"); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("EXISTS"); err != nil {
			return nil, err
		}
		stmt.IfNotExists = true
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	stmt.TableName = name

	if err := p.expectDelim("("); err != nil {
		return nil, err
	}
	for {
		col, err := p.parseColumnDef()
		if err != nil {
			return nil, err
		}
		stmt.Columns = append(stmt.Columns, col)
		if !p.curIsDelim(",") {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if err := p.expectDelim(")"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseColumnDef() (ColumnDef, error) {
	name, err := p.expectIdentifier()
	if err != nil {
		return ColumnDef{}, err
	}
	typeName, err := p.parseDataType()
	if err != nil {
		return ColumnDef{}, err
	}
	col := ColumnDef{Name: name, DataType: typeName}

	for {
		switch {
		case p.curIsKeyword("NOT"):
			if err := p.advance(); err != nil {
				return ColumnDef{}, err
			}
			if err := p.expectKeyword("NULL"); err != nil {
				return ColumnDef{}, err
			}
			col.NotNull = true
		case p.curIsKeyword("PRIMARY"):
			if err := p.advance(); err != nil {
				return ColumnDef{}, err
			}
			if err := p.expectKeyword("KEY"); err != nil {
				return ColumnDef{}, err
			}
			col.PrimaryKey = true
			col.NotNull = true
		case p.curIsKeyword("UNIQUE"):
			if err := p.advance(); err != nil {
				return ColumnDef{}, err
			}
			col.Unique = true
		default:
			return col, nil
		}
	}
}

func (p *Parser) parseDataType() (string, error) {
	if p.cur.Kind != TokKeyword && p.cur.Kind != TokIdentifier {
		return "", dberr.Newf(dberr.KindParse, "expected a data type, got %q", p.cur.Text)
	}
	name := strings.ToUpper(p.cur.Text)
	if err := p.advance(); err != nil {
		return "", err
	}
	// Swallow an optional (n) or (p,s) precision/length spec.
	if p.curIsDelim("(") {
		if err := p.advance(); err != nil {
			return "", err
		}
		for !p.curIsDelim(")") {
			if err := p.advance(); err != nil {
				return "", err
			}
		}
		if err := p.advance(); err != nil {
			return "", err
		}
	}
	return name, nil
}

func (p *Parser) parseDrop() (*DropTableStatement, error) {
	if err := p.expectKeyword("DROP"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("TABLE"); err != nil {
		return nil, err
	}
	stmt := &DropTableStatement{}
	if p.curIsKeyword("IF") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("EXISTS"); err != nil {
			return nil, err
		}
		stmt.IfExists = true
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	stmt.TableName = name
	return stmt, nil
}

func (p *Parser) parseCreateIndex(unique bool) (*CreateIndexStatement, error) {
	if err := p.expectKeyword("INDEX"); err != nil {
		return nil, err
	}
	stmt := &CreateIndexStatement{Unique: unique}
	if p.curIsKeyword("IF") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("NOT"); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("EXISTS"); err != nil {
			return nil, err
		}
		stmt.IfNotExists = true
	}
	idxName, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	stmt.IndexName = idxName
	if err := p.expectKeyword("ON"); err != nil {
		return nil, err
	}
	table, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	stmt.TableName = table
	if err := p.expectDelim("("); err != nil {
		return nil, err
	}
	for {
		col, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		stmt.Columns = append(stmt.Columns, col)
		if !p.curIsDelim(",") {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if err := p.expectDelim(")"); err != nil {
		return nil, err
	}
	return stmt, nil
}

// ---- Expressions ----
//
// parseExpr implements precedence climbing: curBinaryOp reads the
// current token as a BinaryOperator (if it is one), and parsing only
// consumes it when its precedence is at least minPrec.

func (p *Parser) parseExpr(minPrec int) (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.curBinaryOp()
		if !ok || op.Precedence() < minPrec {
			return left, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseExpr(op.Precedence() + 1)
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Left: left, Op: op, Right: right}
	}
}

func (p *Parser) curBinaryOp() (BinaryOperator, bool) {
	switch {
	case p.curIsKeyword("AND"):
		return OpAnd, true
	case p.curIsKeyword("OR"):
		return OpOr, true
	case p.curIsOp("="):
		return OpEq, true
	case p.curIsOp("<>"):
		return OpNeq, true
	case p.curIsOp("<"):
		return OpLt, true
	case p.curIsOp(">"):
		return OpGt, true
	case p.curIsOp("<="):
		return OpLte, true
	case p.curIsOp(">="):
		return OpGte, true
	case p.curIsOp("+"):
		return OpAdd, true
	case p.curIsOp("-"):
		return OpSub, true
	case p.curIsOp("*"):
		return OpMul, true
	case p.curIsOp("/"):
		return OpDiv, true
	case p.curIsOp("%"):
		return OpMod, true
	case p.curIsOp("||"):
		return OpConcat, true
	default:
		return 0, false
	}
}

func (p *Parser) parseUnary() (Expr, error) {
	switch {
	case p.curIsKeyword("NOT"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: OpNot, Operand: operand}, nil
	case p.curIsOp("-"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: OpNeg, Operand: operand}, nil
	case p.curIsOp("+"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: OpPos, Operand: operand}, nil
	default:
		return p.parsePostfix()
	}
}

// parsePostfix handles IS NULL / IS NOT NULL suffixes on a primary.
func (p *Parser) parsePostfix() (Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.curIsKeyword("IS") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.curIsKeyword("NOT") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			if err := p.expectKeyword("NULL"); err != nil {
				return nil, err
			}
			expr = &IsNotNull{Operand: expr}
			continue
		}
		if err := p.expectKeyword("NULL"); err != nil {
			return nil, err
		}
		expr = &IsNull{Operand: expr}
	}
	return expr, nil
}

func (p *Parser) parsePrimary() (Expr, error) {
	switch {
	case p.cur.Kind == TokIntegerLiteral:
		v := p.cur.Integer
		return &Literal{Kind: LitInteger, Integer: v}, p.advance()
	case p.cur.Kind == TokFloatLiteral:
		v := p.cur.Float
		return &Literal{Kind: LitFloat, Float: v}, p.advance()
	case p.cur.Kind == TokStringLiteral:
		v := p.cur.Text
		return &Literal{Kind: LitString, Str: v}, p.advance()
	case p.curIsKeyword("TRUE"):
		return &Literal{Kind: LitBoolean, Boolean: true}, p.advance()
	case p.curIsKeyword("FALSE"):
		return &Literal{Kind: LitBoolean, Boolean: false}, p.advance()
	case p.curIsKeyword("NULL"):
		return &Literal{Kind: LitNull}, p.advance()
	case p.curIsDelim("("):
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if err := p.expectDelim(")"); err != nil {
			return nil, err
		}
		return &Nested{Inner: inner}, nil
	case p.cur.Kind == TokIdentifier:
		return p.parseColumnOrFunction()
	case p.cur.Kind == TokKeyword && isAggregateKeyword(p.cur.Text):
		return p.parseColumnOrFunction()
	default:
		return nil, dberr.Newf(dberr.KindParse, "unexpected token %q in expression", p.cur.Text)
	}
}

func isAggregateKeyword(kw string) bool {
	switch kw {
	case "COUNT", "SUM", "AVG", "MIN", "MAX":
		return true
	default:
		return false
	}
}

func (p *Parser) parseColumnOrFunction() (Expr, error) {
	name := p.cur.Text
	if err := p.advance(); err != nil {
		return nil, err
	}

	if p.curIsDelim("(") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		call := &FunctionCall{Name: strings.ToUpper(name)}
		if p.curIsOp("*") {
			call.Star = true
			if err := p.advance(); err != nil {
				return nil, err
			}
		} else if !p.curIsDelim(")") {
			if p.curIsKeyword("DISTINCT") {
				call.Distinct = true
				if err := p.advance(); err != nil {
					return nil, err
				}
			}
			for {
				e, err := p.parseExpr(0)
				if err != nil {
					return nil, err
				}
				call.Args = append(call.Args, e)
				if !p.curIsDelim(",") {
					break
				}
				if err := p.advance(); err != nil {
					return nil, err
				}
			}
		}
		if err := p.expectDelim(")"); err != nil {
			return nil, err
		}
		return call, nil
	}

	if p.curIsDelim(".") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		col, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		return &ColumnRef{Table: name, Column: col}, nil
	}

	return &ColumnRef{Column: name}, nil
}
