// Package ftpserver provides all the tools to build your own FTP server: The core library and the driver.
package ftpserver

// Reply codes used by the command set this server implements. Names follow
// RFC 959 §4.2's status groupings rather than its exact wording.
const (
	StatusFileStatusOK              = 150 // About to open a data connection
	StatusOK                        = 200 // Command okay
	StatusSystemStatus              = 211 // Welcome banner, FEAT (multi-line)
	StatusSystemType                = 215 // SYST
	StatusClosingControlConn        = 221 // QUIT
	StatusClosingDataConn           = 226 // Transfer complete
	StatusEnteringPASV              = 227 // PASV
	StatusUserLoggedIn              = 230 // PASS succeeded
	StatusFileOK                    = 250 // CWD/RMD/DELE/RNTO succeeded
	StatusPathCreated               = 257 // PWD/MKD succeeded
	StatusUserOK                    = 331 // USER accepted, password required
	StatusFileActionPending         = 350 // RNFR succeeded
	StatusServiceNotAvailable       = 421 // Too many clients, idle timeout
	StatusCannotOpenDataConnection  = 425 // No PASV in effect
	StatusSyntaxErrorNotRecognised  = 500 // Unknown command
	StatusBadCommandSequence        = 503 // PASS without USER, RNTO without RNFR
	StatusNotLoggedIn               = 530 // PASS failed
	StatusActionNotTaken            = 550 // Generic permanent failure
	StatusActionNotTakenNoFile      = 553 // STOR could not create the file
)
