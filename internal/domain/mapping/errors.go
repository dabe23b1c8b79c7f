package mapping

import "errors"

var (
	ErrMappingNotFound = errors.New("identity mapping not found")
	ErrAlreadyResolved = errors.New("identity mapping has already been resolved")
	ErrEmployeeIDRequired = errors.New("employee_id is required to approve a mapping")
)
