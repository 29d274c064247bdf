package heliumdb

import "fmt"

func (e ErrParseError) Error() string {
	return fmt.Sprintf(
		"%s at line %d, column %d",
		e.Err,
		e.LineNumber,
		e.Column,
	)
}

func (e ErrParseError) Unwrap() error {
	return e.Err
}
