package txn

import "github.com/cockroachdb/errors"

var SchedulerStoppedErr = errors.New("scheduler is stopped, can not perform the operation")
var WaterMarkStoppedErr = errors.New("water mark is stopped before the ts was done")
var KeyNotLockedErr = errors.New("key is not in the txn read or write set")
var KeyNotInWriteSetErr = errors.New("key is not in the txn write set, can not write it")
var TxnPanickedErr = errors.New("txn logic panicked")
var TxnAlreadySubmittedErr = errors.New("txn is already submitted")
