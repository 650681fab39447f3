/*
DESCRIPTION
  params.go provides the JPEG picture and scan parameters passed with
  execute calls.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package jpeg

// Maximum number of components in a frame or scan.
const maxComponents = 4

// PicParams holds the frame level parameters of one JPEG image.
type PicParams struct {
	Width         int
	Height        int
	NumComponents int
	Progressive   bool

	// TotalScans is the number of scans the image holds.
	TotalScans int
}

// ScanHeader describes one scan. DataOffset is relative to the start of the
// image and locates the scan's entropy coded data.
type ScanHeader struct {
	NumComponents   int
	RestartInterval int
	DataOffset      int
	DataLength      int
}

// ScanParams holds the scans delivered with one execute call.
type ScanParams struct {
	Scans []ScanHeader
}
