package main

import "errors"

var errBlankFile = errors.New("file has no content")
