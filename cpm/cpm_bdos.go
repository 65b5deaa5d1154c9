// This file implements the BDOS function-calls.
//
// These are documented online:
//
// * https://www.seasip.info/Cpm/bdos.html

package cpm

import (
	"log/slog"

	"github.com/retroshell/cpm80/disk"
	"github.com/retroshell/cpm80/fcb"
)

// blkSize is the size of block-based I/O operations.
const blkSize = 128

// BDOS result codes.
const (
	resOK         = 0x00
	resEOF        = 0x01
	resSeekPast   = 0x06
	resInvalidFCB = 0x09
	resError      = 0xFF
)

// bdosSyscalls populates the BDOS function table.
func bdosSyscalls() map[uint8]Handler {
	sys := make(map[uint8]Handler)
	sys[0] = Handler{
		Desc:    "P_TERMCPM",
		Handler: BdosSysCallExit,
	}
	sys[1] = Handler{
		Desc:    "C_READ",
		Handler: BdosSysCallReadChar,
	}
	sys[2] = Handler{
		Desc:    "C_WRITE",
		Handler: BdosSysCallWriteChar,
	}
	sys[6] = Handler{
		Desc:    "C_RAWIO",
		Handler: BdosSysCallRawIO,
	}
	sys[9] = Handler{
		Desc:    "C_WRITESTRING",
		Handler: BdosSysCallWriteString,
	}
	sys[10] = Handler{
		Desc:    "C_READSTRING",
		Handler: BdosSysCallReadString,
	}
	sys[11] = Handler{
		Desc:    "C_STAT",
		Handler: BdosSysCallConsoleStatus,
	}
	sys[12] = Handler{
		Desc:    "S_BDOSVER",
		Handler: BdosSysCallBDOSVersion,
	}
	sys[13] = Handler{
		Desc:    "DRV_ALLRESET",
		Handler: BdosSysCallDriveAllReset,
	}
	sys[14] = Handler{
		Desc:    "DRV_SET",
		Handler: BdosSysCallDriveSet,
	}
	sys[15] = Handler{
		Desc:    "F_OPEN",
		Handler: BdosSysCallFileOpen,
	}
	sys[16] = Handler{
		Desc:    "F_CLOSE",
		Handler: BdosSysCallFileClose,
	}
	sys[17] = Handler{
		Desc:    "F_SFIRST",
		Handler: BdosSysCallFindFirst,
	}
	sys[18] = Handler{
		Desc:    "F_SNEXT",
		Handler: BdosSysCallFindNext,
	}
	sys[19] = Handler{
		Desc:    "F_DELETE",
		Handler: BdosSysCallDeleteFile,
	}
	sys[20] = Handler{
		Desc:    "F_READ",
		Handler: BdosSysCallRead,
	}
	sys[21] = Handler{
		Desc:    "F_WRITE",
		Handler: BdosSysCallWrite,
	}
	sys[22] = Handler{
		Desc:    "F_MAKE",
		Handler: BdosSysCallMakeFile,
	}
	sys[23] = Handler{
		Desc:    "F_RENAME",
		Handler: BdosSysCallRenameFile,
	}
	sys[24] = Handler{
		Desc:    "DRV_LOGINVEC",
		Handler: BdosSysCallLoginVec,
	}
	sys[25] = Handler{
		Desc:    "DRV_GET",
		Handler: BdosSysCallDriveGet,
	}
	sys[26] = Handler{
		Desc:    "F_DMAOFF",
		Handler: BdosSysCallSetDMA,
	}
	sys[32] = Handler{
		Desc:    "F_USERNUM",
		Handler: BdosSysCallUserNumber,
	}
	sys[33] = Handler{
		Desc:    "F_READRAND",
		Handler: BdosSysCallReadRand,
	}
	sys[34] = Handler{
		Desc:    "F_WRITERAND",
		Handler: BdosSysCallWriteRand,
	}
	sys[35] = Handler{
		Desc:    "F_SIZE",
		Handler: BdosSysCallFileSize,
	}
	return sys
}

// fcbAt reads the FCB structure at the given guest address.
func (cpm *CPM) fcbAt(ptr uint16) fcb.FCB {
	return fcb.FromBytes(cpm.Memory.GetRange(ptr, fcb.SIZE))
}

// BdosSysCallExit terminates the calling program, returning control
// to the CCP.
func BdosSysCallExit(cpm *CPM) error {
	cpm.CPU.Halted = true
	return nil
}

// BdosSysCallReadChar reads a single character from the console.
// Echo is the caller's responsibility.
func BdosSysCallReadChar(cpm *CPM) error {

	c, err := cpm.Term.BlockForCharacter()
	if err != nil {
		return err
	}

	cpm.CPU.A = c
	return nil
}

// BdosSysCallWriteChar writes the single character in the E register
// to the console.
func BdosSysCallWriteChar(cpm *CPM) error {

	cpm.Term.PutCharacter(cpm.CPU.E)
	return nil
}

// BdosSysCallRawIO handles both simple character output, and
// non-blocking input: E=0xFF polls for a key, anything else is
// written to the console.
func BdosSysCallRawIO(cpm *CPM) error {

	if cpm.CPU.E == 0xFF {
		cpm.CPU.A = 0x00

		if cpm.Term.PendingInput() {
			c, err := cpm.Term.BlockForCharacter()
			if err != nil {
				return err
			}
			cpm.CPU.A = c
		}
		return nil
	}

	cpm.Term.PutCharacter(cpm.CPU.E)
	return nil
}

// BdosSysCallWriteString writes the $-terminated string pointed to
// by DE to the console.
func BdosSysCallWriteString(cpm *CPM) error {

	addr := cpm.CPU.DE()

	c := cpm.Memory.Get(addr)
	for c != '$' {
		cpm.Term.PutCharacter(c)
		addr++
		c = cpm.Memory.Get(addr)
	}
	return nil
}

// BdosSysCallReadString reads a line from the console into the
// buffer pointed to by DE: the first byte is the maximum length, the
// second receives the count, and the text follows.
func BdosSysCallReadString(cpm *CPM) error {

	addr := cpm.CPU.DE()

	// If DE is 0x0000 then the DMA area is used instead.
	if addr == 0 {
		addr = cpm.dma
	}

	max := cpm.Memory.Get(addr)

	text, err := cpm.Term.ReadLine(max)
	if err != nil {
		return err
	}

	cpm.Memory.Set(addr+1, uint8(len(text)))
	for i := 0; i < len(text); i++ {
		cpm.Memory.Set(addr+2+uint16(i), text[i])
	}
	return nil
}

// BdosSysCallConsoleStatus returns 0xFF in A if a key is waiting,
// otherwise zero.
func BdosSysCallConsoleStatus(cpm *CPM) error {

	if cpm.Term.PendingInput() {
		cpm.CPU.A = 0xFF
	} else {
		cpm.CPU.A = 0x00
	}
	return nil
}

// BdosSysCallBDOSVersion returns the CP/M 2.2 version details.
func BdosSysCallBDOSVersion(cpm *CPM) error {

	// HL = 0x0022 - CP/M 2.2
	cpm.CPU.A = 0x22
	cpm.CPU.SetHL(0x0022)
	return nil
}

// BdosSysCallDriveAllReset resets the disk system: back to drive A:
// and the default DMA address.  The user-number is left alone.
func BdosSysCallDriveAllReset(cpm *CPM) error {

	cpm.Drive.SetCurrentDrive(0)
	cpm.dma = DefaultDMAAddress

	cpm.Memory.Set(0x0004, cpm.Drive.User()<<4|cpm.Drive.CurrentDrive())

	cpm.CPU.A = 0x00
	return nil
}

// BdosSysCallDriveSet updates the current drive number from E.
func BdosSysCallDriveSet(cpm *CPM) error {

	// The drive number passed to this routine is 0 for A:, 1 for B:
	// up to 15 for P:.
	cpm.Drive.SetCurrentDrive(cpm.CPU.E)

	cpm.Memory.Set(0x0004, cpm.Drive.User()<<4|cpm.Drive.CurrentDrive())

	cpm.CPU.A = 0x00
	return nil
}

// BdosSysCallFileOpen opens the file named by the FCB supplied in DE.
func BdosSysCallFileOpen(cpm *CPM) error {

	ptr := cpm.CPU.DE()
	fcbPtr := cpm.fcbAt(ptr)

	fileName := fcbPtr.GetFileName()
	if fileName == "" {
		cpm.CPU.A = resError
		return nil
	}

	if !cpm.Drive.Exists(fileName) {
		cpm.Logger.Debug("failed to open, file does not exist",
			slog.String("name", fileName))

		cpm.CPU.A = resError
		return nil
	}

	// Reset the current record, and record the open state against
	// the FCB address.
	fcbPtr.Cr = 0x00
	cpm.Memory.SetRange(ptr, fcbPtr.AsBytes()...)

	cpm.files[ptr] = fileState{name: disk.Normalize(fileName)}

	cpm.CPU.A = resOK
	return nil
}

// BdosSysCallFileClose closes the file whose FCB is supplied in DE.
func BdosSysCallFileClose(cpm *CPM) error {

	delete(cpm.files, cpm.CPU.DE())

	cpm.CPU.A = resOK
	return nil
}

// writeFindResult copies the next search hit to the DMA area as a
// 32-byte directory entry, or reports exhaustion.
func (cpm *CPM) writeFindResult() {

	if cpm.findOffset >= len(cpm.findResults) {
		cpm.CPU.A = resError
		return
	}

	name := cpm.findResults[cpm.findOffset]
	cpm.findOffset++

	entry := fcb.FromString(name)
	cpm.Memory.SetRange(cpm.dma, entry.AsDirEntry()...)

	cpm.CPU.A = resOK
}

// BdosSysCallFindFirst finds the first filename, on disk, that
// matches the glob in the FCB supplied in DE.
func BdosSysCallFindFirst(cpm *CPM) error {

	fcbPtr := cpm.fcbAt(cpm.CPU.DE())

	// Previous results are now invalidated.
	cpm.findResults = cpm.Drive.List(fcbPtr.GetFileName())
	cpm.findOffset = 0

	cpm.writeFindResult()
	return nil
}

// BdosSysCallFindNext continues the search started by find-first.
func BdosSysCallFindNext(cpm *CPM) error {

	cpm.writeFindResult()
	return nil
}

// BdosSysCallDeleteFile deletes the (possibly wildcarded) name in
// the FCB supplied in DE.
func BdosSysCallDeleteFile(cpm *CPM) error {

	fcbPtr := cpm.fcbAt(cpm.CPU.DE())

	if cpm.Drive.DeleteMatching(fcbPtr.GetFileName()) == 0 {
		cpm.CPU.A = resError
		return nil
	}

	cpm.CPU.A = resOK
	return nil
}

// BdosSysCallRead reads the next 128-byte record of an open file
// into the DMA area, padding a short tail with EOF markers.
func BdosSysCallRead(cpm *CPM) error {

	ptr := cpm.CPU.DE()

	state, ok := cpm.files[ptr]
	if !ok {
		cpm.CPU.A = resInvalidFCB
		return nil
	}

	data, ok := cpm.Drive.ReadBytes(state.name)
	if !ok || state.offset >= len(data) {
		cpm.CPU.A = resEOF
		return nil
	}

	record := make([]uint8, blkSize)
	for i := range record {
		record[i] = 0x1A
	}
	copy(record, data[state.offset:])
	cpm.Memory.SetRange(cpm.dma, record...)

	state.offset += blkSize
	cpm.files[ptr] = state

	cpm.CPU.A = resOK
	return nil
}

// BdosSysCallWrite writes the next 128-byte record from the DMA
// area, growing the file as needed.
func BdosSysCallWrite(cpm *CPM) error {

	ptr := cpm.CPU.DE()

	state, ok := cpm.files[ptr]
	if !ok {
		cpm.CPU.A = resInvalidFCB
		return nil
	}

	data, _ := cpm.Drive.ReadBytes(state.name)
	for len(data) < state.offset+blkSize {
		data = append(data, 0x00)
	}
	copy(data[state.offset:], cpm.Memory.GetRange(cpm.dma, blkSize))
	cpm.Drive.WriteBytes(state.name, data)

	state.offset += blkSize
	cpm.files[ptr] = state

	cpm.CPU.A = resOK
	return nil
}

// BdosSysCallMakeFile creates a zero-length file and leaves it open.
func BdosSysCallMakeFile(cpm *CPM) error {

	ptr := cpm.CPU.DE()
	fcbPtr := cpm.fcbAt(ptr)

	fileName := fcbPtr.GetFileName()
	if fileName == "" {
		cpm.CPU.A = resError
		return nil
	}

	cpm.Drive.WriteBytes(fileName, []byte{})
	cpm.files[ptr] = fileState{name: disk.Normalize(fileName)}

	cpm.CPU.A = resOK
	return nil
}

// BdosSysCallRenameFile renames a file: the old name is the FCB at
// DE, the new name the FCB sixteen bytes beyond it.
func BdosSysCallRenameFile(cpm *CPM) error {

	ptr := cpm.CPU.DE()

	oldFcb := cpm.fcbAt(ptr)
	newFcb := cpm.fcbAt(ptr + 16)

	if !cpm.Drive.Rename(oldFcb.GetFileName(), newFcb.GetFileName()) {
		cpm.CPU.A = resError
		return nil
	}

	cpm.CPU.A = resOK
	return nil
}

// BdosSysCallLoginVec returns the login vector: only drive A: is
// present.
func BdosSysCallLoginVec(cpm *CPM) error {

	cpm.CPU.SetHL(0x0001)
	cpm.CPU.A = 0x01
	return nil
}

// BdosSysCallDriveGet returns the current drive in A.
func BdosSysCallDriveGet(cpm *CPM) error {

	cpm.CPU.A = cpm.Drive.CurrentDrive()
	return nil
}

// BdosSysCallSetDMA sets the DMA address from DE.
func BdosSysCallSetDMA(cpm *CPM) error {

	cpm.dma = cpm.CPU.DE()

	cpm.CPU.A = 0x00
	return nil
}

// BdosSysCallUserNumber gets or sets the user number: E=0xFF reads
// it into A, anything else stores it.
func BdosSysCallUserNumber(cpm *CPM) error {

	if cpm.CPU.E == 0xFF {
		cpm.CPU.A = cpm.Drive.User()
		return nil
	}

	cpm.Drive.SetUser(cpm.CPU.E)
	cpm.CPU.A = 0x00
	return nil
}

// BdosSysCallReadRand reads the 128-byte record selected by the
// FCB's random-record field into the DMA area.
func BdosSysCallReadRand(cpm *CPM) error {

	ptr := cpm.CPU.DE()

	state, ok := cpm.files[ptr]
	if !ok {
		cpm.CPU.A = resInvalidFCB
		return nil
	}

	fcbPtr := cpm.fcbAt(ptr)
	offset := int(fcbPtr.RandomRecord()) * blkSize

	data, ok := cpm.Drive.ReadBytes(state.name)
	if !ok || offset >= len(data) {
		cpm.CPU.A = resSeekPast
		return nil
	}

	record := make([]uint8, blkSize)
	for i := range record {
		record[i] = 0x1A
	}
	copy(record, data[offset:])
	cpm.Memory.SetRange(cpm.dma, record...)

	cpm.CPU.A = resOK
	return nil
}

// BdosSysCallWriteRand writes the 128-byte record selected by the
// FCB's random-record field from the DMA area, extending the file
// if the record lies past the end.
func BdosSysCallWriteRand(cpm *CPM) error {

	ptr := cpm.CPU.DE()

	state, ok := cpm.files[ptr]
	if !ok {
		cpm.CPU.A = resInvalidFCB
		return nil
	}

	fcbPtr := cpm.fcbAt(ptr)
	offset := int(fcbPtr.RandomRecord()) * blkSize

	data, _ := cpm.Drive.ReadBytes(state.name)
	for len(data) < offset+blkSize {
		data = append(data, 0x00)
	}
	copy(data[offset:], cpm.Memory.GetRange(cpm.dma, blkSize))
	cpm.Drive.WriteBytes(state.name, data)

	cpm.CPU.A = resOK
	return nil
}

// BdosSysCallFileSize computes the size of the file named by the FCB
// at DE, in 128-byte records rounded up, and stores it in the FCB's
// random-record bytes.
func BdosSysCallFileSize(cpm *CPM) error {

	ptr := cpm.CPU.DE()
	fcbPtr := cpm.fcbAt(ptr)

	size, ok := cpm.Drive.Size(fcbPtr.GetFileName())
	if !ok {
		cpm.CPU.A = resError
		return nil
	}

	records := (size + blkSize - 1) / blkSize

	cpm.Memory.Set(ptr+33, uint8(records&0xFF))
	cpm.Memory.Set(ptr+34, uint8((records>>8)&0xFF))
	cpm.Memory.Set(ptr+35, uint8((records>>16)&0xFF))

	cpm.CPU.A = resOK
	return nil
}
